// internal/services/payment_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/models"
)

func acceptTestApplication(t *testing.T, db *gorm.DB, svc *testServiceSet, client *models.User, admin *models.User) *models.PermitApplication {
	t.Helper()
	app := submitTestWFP(t, db, svc, client)
	accepted, err := svc.applications.AcceptApplication(app.ID, admin.ID)
	require.NoError(t, err)
	return accepted
}

func TestCreatePaymentOrderRequiresAcceptedApplication(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	admin := createTestAdmin(t, db, true)

	app := submitTestWFP(t, db, svc, client)

	_, err := svc.payments.CreatePaymentOrder(admin.ID, &CreatePaymentOrderRequest{
		PermitApplicationID: app.ID,
		Items:               []ORItemRequest{{Description: "Permit fee", Amount: 500}},
	})
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)
}

func TestPaymentOrderQuorumAndSettlement(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	preparer := createTestAdmin(t, db, true)
	approver := createTestAdmin(t, db, true)
	cashier := createTestAdmin(t, db, true)

	app := acceptTestApplication(t, db, svc, client, preparer)

	order, err := svc.payments.CreatePaymentOrder(preparer.ID, &CreatePaymentOrderRequest{
		PermitApplicationID: app.ID,
		Items: []ORItemRequest{
			{LegalBasis: "DAO 2004-55", Description: "Permit fee", Amount: 500},
			{Description: "Inspection fee", Amount: 250},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, order.No, "PMDQ-OP-")
	assert.Equal(t, 750.0, order.Total())
	assert.False(t, order.Ready())

	// One order per application.
	_, err = svc.payments.CreatePaymentOrder(preparer.ID, &CreatePaymentOrderRequest{
		PermitApplicationID: app.ID,
		Items:               []ORItemRequest{{Description: "Permit fee", Amount: 500}},
	})
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, IntegrityViolation, wfErr.Kind)

	// The preparer cannot approve their own order.
	_, err = svc.payments.ApprovePaymentOrder(order.ID, preparer.ID)
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)

	// No payment until the quorum stands.
	_, err = svc.payments.RecordOTCPayment(order.ID, cashier.ID, &RecordOTCPaymentRequest{
		ReceiptNo: "OR-001", Amount: 750,
	})
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)

	order, err = svc.payments.ApprovePaymentOrder(order.ID, approver.ID)
	require.NoError(t, err)
	assert.True(t, order.Ready())

	// The amount must match the total exactly.
	_, err = svc.payments.RecordOTCPayment(order.ID, cashier.ID, &RecordOTCPaymentRequest{
		ReceiptNo: "OR-001", Amount: 700,
	})
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)

	payment, err := svc.payments.RecordOTCPayment(order.ID, cashier.ID, &RecordOTCPaymentRequest{
		ReceiptNo: "OR-001", Amount: 750,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentTypeOTC, payment.PaymentType)

	paid, err := svc.payments.IsPaid(app.ID)
	require.NoError(t, err)
	assert.True(t, paid)

	// Paying twice is refused.
	_, err = svc.payments.RecordOTCPayment(order.ID, cashier.ID, &RecordOTCPaymentRequest{
		ReceiptNo: "OR-002", Amount: 750,
	})
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)
}

func TestCreatePaymentOrderRequiresSignatory(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	admin := createTestAdmin(t, db, true)

	app := acceptTestApplication(t, db, svc, client, admin)

	bare := createTestAdmin(t, db, true)
	require.NoError(t, db.Model(bare).Update("payment_order_signatory", false).Error)

	_, err := svc.payments.CreatePaymentOrder(bare.ID, &CreatePaymentOrderRequest{
		PermitApplicationID: app.ID,
		Items:               []ORItemRequest{{Description: "Permit fee", Amount: 500}},
	})
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)
}
