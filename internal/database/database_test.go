package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGormConfigTranslatesDriverErrors(t *testing.T) {
	// Without TranslateError the mysql driver surfaces duplicate-key as a raw
	// *mysql.MySQLError and the services' gorm.ErrDuplicatedKey checks never
	// match.
	cfg := gormConfig()
	assert.True(t, cfg.TranslateError)
	assert.NotNil(t, cfg.Logger)
}
