package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"wyn/internal/domain"
)

func TestValidTimeOfDay(t *testing.T) {
	valid := []string{"00:00", "09:30", "14:05", "23:59"}
	for _, s := range valid {
		assert.True(t, ValidTimeOfDay(s), s)
	}
	invalid := []string{"", "24:00", "9:30", "12:60", "12:5", "noonish", "12:30:00"}
	for _, s := range invalid {
		assert.False(t, ValidTimeOfDay(s), s)
	}
}

func TestValidateSchedule(t *testing.T) {
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	tod := "14:30"
	bad := "25:00"

	assert.NoError(t, ValidateSchedule(nil, nil))
	assert.NoError(t, ValidateSchedule(&date, &tod))
	// both halves or neither
	assert.ErrorIs(t, ValidateSchedule(&date, nil), domain.ErrValidation)
	assert.ErrorIs(t, ValidateSchedule(nil, &tod), domain.ErrValidation)
	assert.ErrorIs(t, ValidateSchedule(&date, &bad), domain.ErrValidation)
}

func TestIsParticipant(t *testing.T) {
	r := &ServiceRequest{ClientID: 1, ProviderID: 2}

	assert.True(t, r.IsParticipant(domain.PrincipalClient, 1))
	assert.True(t, r.IsParticipant(domain.PrincipalProvider, 2))
	// ids are only meaningful within their own principal type
	assert.False(t, r.IsParticipant(domain.PrincipalProvider, 1))
	assert.False(t, r.IsParticipant(domain.PrincipalClient, 2))
	assert.False(t, r.IsParticipant(domain.PrincipalClient, 3))
}

func TestReviewValidate(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		r := &Review{RequestID: 1, Rating: rating}
		assert.NoError(t, r.Validate())
	}
	for _, rating := range []int{0, -1, 6} {
		r := &Review{RequestID: 1, Rating: rating}
		assert.ErrorIs(t, r.Validate(), domain.ErrValidation)
	}
}
