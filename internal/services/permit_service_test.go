// internal/services/permit_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/models"
)

// issueTestWFP walks a WFP application all the way to a draft permit.
func issueTestWFP(t *testing.T, db *gorm.DB, svc *testServiceSet, client, preparer, approver *models.User) *models.Permit {
	t.Helper()
	app := acceptTestApplication(t, db, svc, client, preparer)
	settleTestApplication(t, db, svc, app, preparer, approver)
	permit, err := svc.issuance.IssuePermit(app.ID, preparer.ID)
	require.NoError(t, err)
	return permit
}

func TestReleaseStampsValidityWindow(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	preparer := createTestAdmin(t, db, true)
	approver := createTestAdmin(t, db, true)

	permit := issueTestWFP(t, db, svc, client, preparer, approver)

	released, err := svc.permits.ReleasePermit(permit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReleased, released.Status)
	require.NotNil(t, released.IssuedDate)
	require.NotNil(t, released.ValidUntil)

	// A farm permit runs for 1825 days from the release date.
	expected := released.IssuedDate.AddDate(0, 0, 1825)
	assert.True(t, released.ValidUntil.Equal(expected),
		"expected %s, got %s", expected, released.ValidUntil)

	// The source application mirrors the released permit.
	var app models.PermitApplication
	require.NoError(t, db.First(&app, "permit_id = ?", permit.ID).Error)
	assert.Equal(t, models.StatusReleased, app.Status)

	// Releasing twice is refused.
	_, err = svc.permits.ReleasePermit(permit.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, AlreadyTerminal, wfErr.Kind)
}

func TestReleaseLTPRequiresSignature(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	admin := createTestAdmin(t, db, true)

	permit := &models.Permit{
		PermitNo:   "PMDQ-LTP-" + uuid.New().String()[:8],
		PermitType: models.PermitTypeLTP,
		ClientID:   client.ID,
		Status:     models.StatusDraft,
		ORNo:       "OR-900",
	}
	require.NoError(t, db.Create(permit).Error)

	_, err := svc.permits.ReleasePermit(permit.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, MissingDependency, wfErr.Kind)

	_, err = svc.permits.SignPermit(permit.ID, admin.ID)
	require.NoError(t, err)

	released, err := svc.permits.ReleasePermit(permit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReleased, released.Status)

	// A transport permit runs for 30 days.
	expected := released.IssuedDate.AddDate(0, 0, 30)
	assert.True(t, released.ValidUntil.Equal(expected))
}

func TestSignPermitOnlyWhileDraft(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	admin := createTestAdmin(t, db, true)

	permit := createReleasedPermit(t, db, client.ID, models.PermitTypeLTP, 30)

	_, err := svc.permits.SignPermit(permit.ID, admin.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)
}

func TestValidateAndUse(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	validator := createTestValidator(t, db)

	permit := createReleasedPermit(t, db, client.ID, models.PermitTypeLTP, 30)

	validation, err := svc.permits.ValidateAndUse(permit.PermitNo, permit.ORNo, validator.ID)
	require.NoError(t, err)
	assert.Equal(t, permit.ID, validation.PermitID)

	var reloaded models.Permit
	require.NoError(t, db.First(&reloaded, "id = ?", permit.ID).Error)
	assert.Equal(t, models.StatusUsed, reloaded.Status)

	// Validating again by the same validator is a no-op.
	again, err := svc.permits.ValidateAndUse(permit.PermitNo, permit.ORNo, validator.ID)
	require.NoError(t, err)
	assert.Equal(t, validation.ID, again.ID)

	// Another validator cannot validate a used permit.
	other := createTestValidator(t, db)
	_, err = svc.permits.ValidateAndUse(permit.PermitNo, permit.ORNo, other.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, AlreadyTerminal, wfErr.Kind)
}

func TestValidateRejectsExpiredAndWrongNumbers(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	validator := createTestValidator(t, db)

	expired := createReleasedPermit(t, db, client.ID, models.PermitTypeLTP, -5)

	// Expiry is projected even though the sweep has not run.
	_, err := svc.permits.ValidateAndUse(expired.PermitNo, expired.ORNo, validator.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)

	// The permit number alone is not enough; the receipt must match.
	fresh := createReleasedPermit(t, db, client.ID, models.PermitTypeWCP, 30)
	_, err = svc.permits.ValidateAndUse(fresh.PermitNo, "OR-wrong", validator.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestValidateRequiresValidatorRole(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)

	permit := createReleasedPermit(t, db, client.ID, models.PermitTypeLTP, 30)

	_, err := svc.permits.ValidateAndUse(permit.PermitNo, permit.ORNo, client.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)
}

func TestExpireDuePermitsSweep(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)

	due := createReleasedPermit(t, db, client.ID, models.PermitTypeLTP, -1)
	current := createReleasedPermit(t, db, client.ID, models.PermitTypeWFP, 1825)

	// Boundary: a permit whose window ends today is still valid.
	today := createReleasedPermit(t, db, client.ID, models.PermitTypeCWR, 0)

	expired, err := svc.permits.ExpireDuePermits()
	require.NoError(t, err)
	assert.EqualValues(t, 1, expired)

	// Fresh structs per lookup; reusing one would carry the previous
	// primary key into the next query's conditions.
	var dueReloaded, currentReloaded, todayReloaded models.Permit
	require.NoError(t, db.First(&dueReloaded, "id = ?", due.ID).Error)
	assert.Equal(t, models.StatusExpired, dueReloaded.Status)

	require.NoError(t, db.First(&currentReloaded, "id = ?", current.ID).Error)
	assert.Equal(t, models.StatusReleased, currentReloaded.Status)

	require.NoError(t, db.First(&todayReloaded, "id = ?", today.ID).Error)
	assert.Equal(t, models.StatusReleased, todayReloaded.Status)

	// The sweep leaves an expiry notice on the admin dashboard.
	var notices []models.AdminNotification
	require.NoError(t, db.Where("type = ?", "permit_expired").Find(&notices).Error)
	require.Len(t, notices, 1)
	assert.Equal(t, due.PermitNo, notices[0].Data["permit_no"])

	// Running again finds nothing new.
	expired, err = svc.permits.ExpireDuePermits()
	require.NoError(t, err)
	assert.EqualValues(t, 0, expired)
}

func TestExpirySweepMirrorsApplication(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	preparer := createTestAdmin(t, db, true)
	approver := createTestAdmin(t, db, true)

	permit := issueTestWFP(t, db, svc, client, preparer, approver)
	released, err := svc.permits.ReleasePermit(permit.ID)
	require.NoError(t, err)

	// Force the window into the past.
	past := time.Now().AddDate(0, 0, -2)
	require.NoError(t, db.Model(released).Update("valid_until", past).Error)

	expired, err := svc.permits.ExpireDuePermits()
	require.NoError(t, err)
	assert.EqualValues(t, 1, expired)

	var app models.PermitApplication
	require.NoError(t, db.First(&app, "permit_id = ?", permit.ID).Error)
	assert.Equal(t, models.StatusExpired, app.Status)
}
