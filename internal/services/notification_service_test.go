// internal/services/notification_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdq/biodiversity-backend/internal/models"
)

func TestNotifyPermitValidatedRecordsAdminNotice(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNotificationService(db, testConfig())
	client := createTestClient(t, db)
	validator := createTestValidator(t, db)

	permit := createReleasedPermit(t, db, client.ID, models.PermitTypeLTP, 30)
	ns.NotifyPermitValidated(permit, validator)

	var notices []models.AdminNotification
	require.NoError(t, db.Where("type = ?", "permit_validated").Find(&notices).Error)
	require.Len(t, notices, 1)
	assert.Equal(t, permit.ID.String(), notices[0].Data["permit_id"])
	assert.Equal(t, validator.ID.String(), notices[0].Data["validator_id"])
}

func TestNotifyApplicationUnsubmittedRecordsAdminNotice(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNotificationService(db, testConfig())
	client := createTestClient(t, db)

	application := &models.PermitApplication{
		No:         "PMDQ-WFP-2026-08-30-deadbeef",
		ClientID:   client.ID,
		PermitType: models.PermitTypeWFP,
		Status:     models.StatusDraft,
	}
	require.NoError(t, db.Create(application).Error)

	ns.NotifyApplicationUnsubmitted(application)

	var notices []models.AdminNotification
	require.NoError(t, db.Where("type = ?", "application_unsubmitted").Find(&notices).Error)
	require.Len(t, notices, 1)
	assert.Equal(t, application.ID.String(), notices[0].Data["application_id"])
}

func TestNotifyInspectionSignedRecordsAdminNotice(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNotificationService(db, testConfig())
	client := createTestClient(t, db)
	officer := createTestAdmin(t, db, true)

	application := &models.PermitApplication{
		ClientID:   client.ID,
		PermitType: models.PermitTypeWFP,
		Status:     models.StatusAccepted,
	}
	require.NoError(t, db.Create(application).Error)

	inspection := &models.Inspection{
		No:                  "PMDQ-INSP-2026-08-cafef00d",
		PermitApplicationID: application.ID,
		InspectingOfficerID: officer.ID,
		ScheduledDate:       time.Now().AddDate(0, 0, 3),
	}
	require.NoError(t, db.Create(inspection).Error)

	ns.NotifyInspectionSigned(inspection)

	var notices []models.AdminNotification
	require.NoError(t, db.Where("type = ?", "inspection_signed").Find(&notices).Error)
	require.Len(t, notices, 1)
	assert.Equal(t, inspection.No, notices[0].Data["inspection_no"])
}

func TestNotifyPermitReleasedRecordsAdminNotice(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNotificationService(db, testConfig())
	client := createTestClient(t, db)

	permit := createReleasedPermit(t, db, client.ID, models.PermitTypeWFP, 1825)
	ns.NotifyPermitReleased(permit)

	var notices []models.AdminNotification
	require.NoError(t, db.Where("type = ?", "permit_released").Find(&notices).Error)
	require.Len(t, notices, 1)
	assert.Equal(t, permit.PermitNo, notices[0].Data["permit_no"])
}
