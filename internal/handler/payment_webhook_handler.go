package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wyn/config"
	"wyn/internal/service"
	"wyn/pkg/payment"
)

// PaymentWebhookHandler ingests gateway notifications. It acknowledges with
// 200 whenever the payload was readable, even for unknown references or
// stale states, so the gateway stops redelivering.
type PaymentWebhookHandler struct {
	workflow *service.WorkflowService
	gateway  payment.Provider
	cfg      *config.PaymentConfig
}

func NewPaymentWebhookHandler(workflow *service.WorkflowService, gateway payment.Provider, cfg *config.PaymentConfig) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{workflow: workflow, gateway: gateway, cfg: cfg}
}

// Handle accepts two payload shapes: the gateway's native id-only form
// ({"type":"payment","data":{"id":"..."}}), resolved through a gateway
// lookup, and the direct form ({"external_reference":"...","status":"..."}).
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.WebhookSecret != "" {
		if !h.verifySignature(body, c.GetHeader("X-Webhook-Signature")) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}
	var payload struct {
		Type string `json:"type"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
		ExternalReference string `json:"external_reference"`
		Status            string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ref, status := payload.ExternalReference, payload.Status
	if ref == "" && payload.Type == "payment" && payload.Data.ID != "" {
		ev, err := h.gateway.LookupPayment(c.Request.Context(), payload.Data.ID)
		if err != nil {
			// Ack anyway: a lookup failure now will succeed on redelivery,
			// and erroring here only multiplies retries.
			logrus.WithError(err).WithField("payment_id", payload.Data.ID).Warn("payment lookup failed")
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		ref, status = ev.ExternalReference, ev.Status
	}
	if ref == "" || status == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	h.workflow.HandlePaymentEvent(c.Request.Context(), ref, status)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return signature != "" && hmac.Equal([]byte(expected), []byte(signature))
}
