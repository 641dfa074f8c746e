// internal/services/issuance_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/models"
)

// settleTestApplication walks an accepted application through payment and a
// signed inspection so it is ready for issuance.
func settleTestApplication(t *testing.T, db *gorm.DB, svc *testServiceSet, app *models.PermitApplication, preparer, approver *models.User) {
	t.Helper()

	order, err := svc.payments.CreatePaymentOrder(preparer.ID, &CreatePaymentOrderRequest{
		PermitApplicationID: app.ID,
		Items:               []ORItemRequest{{Description: "Permit fee", Amount: 500}},
	})
	require.NoError(t, err)

	_, err = svc.payments.ApprovePaymentOrder(order.ID, approver.ID)
	require.NoError(t, err)

	_, err = svc.payments.RecordOTCPayment(order.ID, approver.ID, &RecordOTCPaymentRequest{
		ReceiptNo: "OR-" + app.ID.String()[:8], Amount: 500,
	})
	require.NoError(t, err)

	inspection, err := svc.inspections.ScheduleInspection(&ScheduleInspectionRequest{
		PermitApplicationID: app.ID,
		InspectingOfficerID: preparer.ID,
		ScheduledDate:       time.Now().AddDate(0, 0, 3),
	})
	require.NoError(t, err)

	_, err = svc.inspections.SignInspection(inspection.ID, preparer.ID)
	require.NoError(t, err)
}

func TestIssuePreconditionOrder(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	preparer := createTestAdmin(t, db, true)
	approver := createTestAdmin(t, db, true)

	app := acceptTestApplication(t, db, svc, client, preparer)

	// No payment order yet.
	_, err := svc.issuance.IssuePermit(app.ID, preparer.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, MissingDependency, wfErr.Kind)
	assert.Contains(t, wfErr.Reason, "payment order")

	order, err := svc.payments.CreatePaymentOrder(preparer.ID, &CreatePaymentOrderRequest{
		PermitApplicationID: app.ID,
		Items:               []ORItemRequest{{Description: "Permit fee", Amount: 500}},
	})
	require.NoError(t, err)
	_, err = svc.payments.ApprovePaymentOrder(order.ID, approver.ID)
	require.NoError(t, err)

	// Order exists but is unpaid.
	_, err = svc.issuance.IssuePermit(app.ID, preparer.ID)
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, MissingDependency, wfErr.Kind)
	assert.Contains(t, wfErr.Reason, "settled")

	_, err = svc.payments.RecordOTCPayment(order.ID, approver.ID, &RecordOTCPaymentRequest{
		ReceiptNo: "OR-100", Amount: 500,
	})
	require.NoError(t, err)

	// Paid but no inspection.
	_, err = svc.issuance.IssuePermit(app.ID, preparer.ID)
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, MissingDependency, wfErr.Kind)
	assert.Contains(t, wfErr.Reason, "inspection")

	inspection, err := svc.inspections.ScheduleInspection(&ScheduleInspectionRequest{
		PermitApplicationID: app.ID,
		InspectingOfficerID: preparer.ID,
		ScheduledDate:       time.Now().AddDate(0, 0, 3),
	})
	require.NoError(t, err)

	// Inspection scheduled but unsigned.
	_, err = svc.issuance.IssuePermit(app.ID, preparer.ID)
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, MissingDependency, wfErr.Kind)
	assert.Contains(t, wfErr.Reason, "signed")

	_, err = svc.inspections.SignInspection(inspection.ID, preparer.ID)
	require.NoError(t, err)

	permit, err := svc.issuance.IssuePermit(app.ID, preparer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, permit.Status)
	assert.Contains(t, permit.PermitNo, "PMDQ-WFP-")
	assert.Equal(t, "OR-100", permit.ORNo)
	assert.Equal(t, 500.0, permit.ORAmount)

	// Issuing twice is refused.
	_, err = svc.issuance.IssuePermit(app.ID, preparer.ID)
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, AlreadyTerminal, wfErr.Kind)
}

func TestIssueWCPFreezesAllowances(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	preparer := createTestAdmin(t, db, true)
	approver := createTestAdmin(t, db, true)

	hornbill := createTestSpecies(t, db, "Tarictic Hornbill")
	cockatoo := createTestSpecies(t, db, "Philippine Cockatoo")

	app, err := svc.applications.CreateApplication(client.ID, &CreateApplicationRequest{PermitType: "WCP"})
	require.NoError(t, err)

	collectors := "Juan dela Cruz, Mogpog"
	farmName := "Dela Cruz Wildlife Farm"
	farmAddress := "Mogpog, Marinduque"
	_, err = svc.applications.UpdateApplication(app.ID, client.ID, &UpdateApplicationRequest{
		FarmName: &farmName, FarmAddress: &farmAddress, CollectorsAndTrappers: &collectors,
	})
	require.NoError(t, err)

	_, err = svc.applications.AddCollectionEntry(app.ID, client.ID, &LineItemRequest{SubSpeciesID: hornbill.ID, Quantity: 5})
	require.NoError(t, err)
	_, err = svc.applications.AddCollectionEntry(app.ID, client.ID, &LineItemRequest{SubSpeciesID: cockatoo.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.applications.SubmitApplication(app.ID, client.ID)
	require.NoError(t, err)
	accepted, err := svc.applications.AcceptApplication(app.ID, preparer.ID)
	require.NoError(t, err)

	settleTestApplication(t, db, svc, accepted, preparer, approver)

	permit, err := svc.issuance.IssuePermit(app.ID, preparer.ID)
	require.NoError(t, err)

	var allowances []models.PermittedToCollectAnimal
	require.NoError(t, db.Where("permit_id = ?", permit.ID).Find(&allowances).Error)
	assert.Len(t, allowances, 2)

	quantities := map[int]bool{}
	for _, a := range allowances {
		quantities[a.Quantity] = true
	}
	assert.True(t, quantities[5])
	assert.True(t, quantities[2])
}

func TestIssueLTPReparentsTransportEntries(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	preparer := createTestAdmin(t, db, true)
	approver := createTestAdmin(t, db, true)

	wfp := createReleasedPermit(t, db, client.ID, models.PermitTypeWFP, 1825)
	wcp := createReleasedPermit(t, db, client.ID, models.PermitTypeWCP, 1825)
	hornbill := createTestSpecies(t, db, "Tarictic Hornbill")
	allowSpecies(t, db, wcp.ID, hornbill.ID, 5)

	app, err := svc.applications.CreateApplication(client.ID, &CreateApplicationRequest{PermitType: "LTP"})
	require.NoError(t, err)

	date := time.Now().AddDate(0, 0, 7)
	location := "Boac, Marinduque"
	_, err = svc.applications.UpdateApplication(app.ID, client.ID, &UpdateApplicationRequest{
		TransportDate: &date, TransportLocation: &location,
	})
	require.NoError(t, err)

	_, err = svc.applications.AddTransportEntry(app.ID, client.ID, &LineItemRequest{
		SubSpeciesID: hornbill.ID, Quantity: 3,
	})
	require.NoError(t, err)

	_, err = svc.applications.SubmitApplication(app.ID, client.ID)
	require.NoError(t, err)
	accepted, err := svc.applications.AcceptApplication(app.ID, preparer.ID)
	require.NoError(t, err)

	settleTestApplication(t, db, svc, accepted, preparer, approver)

	permit, err := svc.issuance.IssuePermit(app.ID, preparer.ID)
	require.NoError(t, err)
	require.NotNil(t, permit.WFPID)
	require.NotNil(t, permit.WCPID)
	assert.Equal(t, wfp.ID, *permit.WFPID)
	assert.Equal(t, wcp.ID, *permit.WCPID)
	assert.Equal(t, location, permit.TransportLocation)

	var entries []models.TransportEntry
	require.NoError(t, db.Where("local_transport_permit_id = ?", permit.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Quantity)

	// The application carries the back-reference.
	reloaded, err := svc.applications.GetApplication(app.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.PermitID)
	assert.Equal(t, permit.ID, *reloaded.PermitID)
}
