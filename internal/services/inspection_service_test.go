// internal/services/inspection_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleInspectionRequiresPaidApplication(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	preparer := createTestAdmin(t, db, true)
	approver := createTestAdmin(t, db, true)

	app := acceptTestApplication(t, db, svc, client, preparer)

	// Accepted but unpaid.
	_, err := svc.inspections.ScheduleInspection(&ScheduleInspectionRequest{
		PermitApplicationID: app.ID,
		InspectingOfficerID: preparer.ID,
		ScheduledDate:       time.Now().AddDate(0, 0, 3),
	})
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, MissingDependency, wfErr.Kind)

	order, err := svc.payments.CreatePaymentOrder(preparer.ID, &CreatePaymentOrderRequest{
		PermitApplicationID: app.ID,
		Items:               []ORItemRequest{{Description: "Permit fee", Amount: 500}},
	})
	require.NoError(t, err)
	_, err = svc.payments.ApprovePaymentOrder(order.ID, approver.ID)
	require.NoError(t, err)
	_, err = svc.payments.RecordOTCPayment(order.ID, approver.ID, &RecordOTCPaymentRequest{
		ReceiptNo: "OR-300", Amount: 500,
	})
	require.NoError(t, err)

	inspection, err := svc.inspections.ScheduleInspection(&ScheduleInspectionRequest{
		PermitApplicationID: app.ID,
		InspectingOfficerID: preparer.ID,
		ScheduledDate:       time.Now().AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, app.ID, inspection.PermitApplicationID)
	assert.Contains(t, inspection.No, "PMDQ-INSP-")
	assert.Contains(t, inspection.No, inspection.ID.String()[:8])

	// One inspection per application.
	_, err = svc.inspections.ScheduleInspection(&ScheduleInspectionRequest{
		PermitApplicationID: app.ID,
		InspectingOfficerID: preparer.ID,
		ScheduledDate:       time.Now().AddDate(0, 0, 5),
	})
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, IntegrityViolation, wfErr.Kind)
}

func TestSignInspectionOnlyAssignedOfficer(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	preparer := createTestAdmin(t, db, true)
	approver := createTestAdmin(t, db, true)

	app := acceptTestApplication(t, db, svc, client, preparer)
	settleTestApplication(t, db, svc, app, preparer, approver)

	inspection, err := svc.inspections.GetInspectionByApplication(app.ID)
	require.NoError(t, err)

	// Signing is idempotent for the assigned officer but refused for
	// anyone else, signatory or not.
	other := createTestAdmin(t, db, true)
	_, err = svc.inspections.SignInspection(inspection.ID, other.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)

	signed, err := svc.inspections.Signed(inspection)
	require.NoError(t, err)
	assert.True(t, signed)
}
