// internal/models/permit_test.go
package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPermitExpiredBoundary(t *testing.T) {
	validUntil := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	permit := Permit{Status: StatusReleased, ValidUntil: &validUntil}

	// The valid-until day itself still counts as valid.
	onTheDay := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	assert.False(t, permit.Expired(onTheDay))
	assert.Equal(t, StatusReleased, permit.CurrentStatus(onTheDay))

	dayAfter := time.Date(2026, 8, 31, 0, 0, 1, 0, time.UTC)
	assert.True(t, permit.Expired(dayAfter))
	assert.Equal(t, StatusExpired, permit.CurrentStatus(dayAfter))
}

func TestPermitWithoutWindowNeverExpires(t *testing.T) {
	permit := Permit{Status: StatusReleased}
	assert.False(t, permit.Expired(time.Now().AddDate(100, 0, 0)))
}

func TestCurrentStatusLeavesOtherStatusesAlone(t *testing.T) {
	past := time.Now().AddDate(0, 0, -10)
	permit := Permit{Status: StatusUsed, ValidUntil: &past}
	assert.Equal(t, StatusUsed, permit.CurrentStatus(time.Now()))

	draft := Permit{Status: StatusDraft, ValidUntil: &past}
	assert.Equal(t, StatusDraft, draft.CurrentStatus(time.Now()))
}

func TestPaymentOrderQuorum(t *testing.T) {
	order := PaymentOrder{PreparedByID: uuid.New()}
	assert.False(t, order.Ready(), "an unapproved order is not a quorum")

	self := order.PreparedByID
	order.ApprovedByID = &self
	assert.False(t, order.Ready(), "preparer approving their own order is not a quorum")

	distinct := uuid.New()
	order.ApprovedByID = &distinct
	assert.True(t, order.Ready())
}

func TestPaymentOrderTotal(t *testing.T) {
	order := PaymentOrder{Items: []ORItem{{Amount: 500}, {Amount: 250.50}}}
	assert.Equal(t, 750.50, order.Total())
}
