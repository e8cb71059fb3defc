package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client wraps Cloudinary uploads for profile photos and completion proofs.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
	// UploadRaw stores non-image files (PDFs) untransformed.
	UploadRaw(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
	DeleteByURL(ctx context.Context, url string) error
}

const (
	imageEager = "q_auto,f_auto,w_800,c_limit"
)

var eagerAsyncFalse = false

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}

func (c *clientImpl) UploadRaw(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}

// DeleteByURL derives the public ID from a delivery URL and destroys the
// asset. Unrecognized URLs are ignored.
func (c *clientImpl) DeleteByURL(ctx context.Context, url string) error {
	publicID, resourceType := parseDeliveryURL(url)
	if publicID == "" {
		return nil
	}
	_, err := c.uploader.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	return err
}

// parseDeliveryURL extracts ".../<type>/upload/[v123/]<public_id>[.ext]".
func parseDeliveryURL(url string) (publicID, resourceType string) {
	parts := strings.SplitN(url, "/upload/", 2)
	if len(parts) != 2 {
		return "", ""
	}
	resourceType = "image"
	if strings.Contains(parts[0], "/raw") {
		resourceType = "raw"
	}
	rest := parts[1]
	if i := strings.IndexByte(rest, '/'); i > 0 && strings.HasPrefix(rest, "v") {
		rest = rest[i+1:]
	}
	if resourceType == "image" {
		rest = strings.TrimSuffix(rest, path.Ext(rest))
	}
	return rest, resourceType
}

// NewClientFromParams builds a Client from Cloudinary credentials.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, fmt.Errorf("cloudinary uploader: %w", err)
	}
	return &clientImpl{cloudName: cloudName, uploader: up}, nil
}
