// internal/services/payment_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/config"
	"github.com/pmdq/biodiversity-backend/internal/database"
	"github.com/pmdq/biodiversity-backend/internal/models"
)

// PaymentService owns payment orders and their settlement, either over the
// counter or online through Stripe.
type PaymentService struct {
	db                  *gorm.DB
	notificationService *NotificationService
	config              *config.Config
}

func NewPaymentService(db *gorm.DB, notificationService *NotificationService, cfg *config.Config) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey
	return &PaymentService{
		db:                  db,
		notificationService: notificationService,
		config:              cfg,
	}
}

type ORItemRequest struct {
	LegalBasis  string  `json:"legal_basis" validate:"max=255"`
	Description string  `json:"description" validate:"required,max=255"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
}

type CreatePaymentOrderRequest struct {
	PermitApplicationID uuid.UUID       `json:"permit_application_id" validate:"required"`
	Items               []ORItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreatePaymentOrder prepares the bill for an accepted application. One
// order per application; the preparer becomes the first signatory.
func (s *PaymentService) CreatePaymentOrder(preparedByID uuid.UUID, req *CreatePaymentOrderRequest) (*models.PaymentOrder, error) {
	var application models.PermitApplication
	if err := s.db.First(&application, "id = ?", req.PermitApplicationID).Error; err != nil {
		return nil, err
	}
	if application.Status != models.StatusAccepted {
		return nil, guardRejected("a payment order requires an accepted application")
	}

	var count int64
	if err := s.db.Model(&models.PaymentOrder{}).
		Where("permit_application_id = ?", application.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, integrityViolation("a payment order already exists for application %s", application.No)
	}

	var preparer models.User
	if err := s.db.First(&preparer, "id = ?", preparedByID).Error; err != nil {
		return nil, err
	}
	if !preparer.PaymentOrderSignatory {
		return nil, guardRejected("only a payment order signatory may prepare a payment order")
	}
	if !preparer.CanSign() {
		return nil, guardRejected("a title and a signature image on file are required before preparing a payment order")
	}

	order := &models.PaymentOrder{
		PermitApplicationID: application.ID,
		PreparedByID:        preparedByID,
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		order.No = fmt.Sprintf("%s-OP-%s-%s",
			s.config.Permits.RegionCode, order.CreatedAt.Format("2006-01"), order.ID.String()[:8])
		if err := tx.Model(order).Update("no", order.No).Error; err != nil {
			return err
		}

		for _, item := range req.Items {
			orItem := models.ORItem{
				PaymentOrderID: order.ID,
				LegalBasis:     item.LegalBasis,
				Description:    item.Description,
				Amount:         item.Amount,
			}
			if err := tx.Create(&orItem).Error; err != nil {
				return err
			}
		}

		// The preparer signs as part of creating the order.
		signature := models.Signature{
			SubjectType:       models.SignatureSubjectPaymentOrder,
			SubjectID:         order.ID,
			PersonID:          preparedByID,
			Title:             preparer.Title,
			SignatureImageKey: preparer.SignatureImageKey,
		}
		return tx.Create(&signature).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetPaymentOrder(order.ID)
}

// GetPaymentOrder loads an order with its items, payment and signatories.
func (s *PaymentService) GetPaymentOrder(id uuid.UUID) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := s.db.
		Preload("Items").
		Preload("Payment").
		Preload("PreparedBy").
		Preload("ApprovedBy").
		Preload("PermitApplication").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetPaymentOrderByApplication loads the order for an application.
func (s *PaymentService) GetPaymentOrderByApplication(applicationID uuid.UUID) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := s.db.
		Preload("Items").
		Preload("Payment").
		First(&order, "permit_application_id = ?", applicationID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ApprovePaymentOrder records the second signatory. The approver must be a
// distinct payment order signatory; approval signs the order for them.
func (s *PaymentService) ApprovePaymentOrder(orderID, approverID uuid.UUID) (*models.PaymentOrder, error) {
	order, err := s.GetPaymentOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.ApprovedByID != nil {
		return nil, guardRejected("payment order %s has already been approved", order.No)
	}
	if order.PreparedByID == approverID {
		return nil, guardRejected("the approver must be different from the preparer")
	}

	var approver models.User
	if err := s.db.First(&approver, "id = ?", approverID).Error; err != nil {
		return nil, err
	}
	if !approver.PaymentOrderSignatory {
		return nil, guardRejected("only a payment order signatory may approve a payment order")
	}
	if !approver.CanSign() {
		return nil, guardRejected("a title and a signature image on file are required before approving")
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Model(order).Update("approved_by_id", approverID).Error; err != nil {
			return err
		}
		signature := models.Signature{
			SubjectType:       models.SignatureSubjectPaymentOrder,
			SubjectID:         order.ID,
			PersonID:          approverID,
			Title:             approver.Title,
			SignatureImageKey: approver.SignatureImageKey,
		}
		return tx.Create(&signature).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetPaymentOrder(orderID)
}

// CreatePaymentIntent opens a Stripe payment intent for an approved, unpaid
// order and returns the client secret.
func (s *PaymentService) CreatePaymentIntent(orderID uuid.UUID) (*models.PaymentOrder, string, error) {
	order, err := s.GetPaymentOrder(orderID)
	if err != nil {
		return nil, "", err
	}
	if !order.Ready() {
		return nil, "", guardRejected("payment order %s is not yet approved by a second signatory", order.No)
	}
	if order.Paid() {
		return nil, "", guardRejected("payment order %s has already been paid", order.No)
	}

	total := order.Total()
	if total <= 0 {
		return nil, "", integrityViolation("payment order %s has no payable amount", order.No)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(total * 100)),
		Currency: stripe.String(s.config.Payment.Currency),
	}
	params.AddMetadata("payment_order_id", order.ID.String())
	params.AddMetadata("payment_order_no", order.No)

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	return order, intent.ClientSecret, nil
}

// ConfirmOnlinePayment verifies a succeeded Stripe payment intent and
// records the settlement against the order.
func (s *PaymentService) ConfirmOnlinePayment(orderID uuid.UUID, paymentIntentID string) (*models.Payment, error) {
	order, err := s.GetPaymentOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Paid() {
		return nil, guardRejected("payment order %s has already been paid", order.No)
	}

	intent, err := paymentintent.Get(paymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, guardRejected("payment has not succeeded yet")
	}
	if intent.Metadata["payment_order_id"] != order.ID.String() {
		return nil, guardRejected("payment intent does not belong to this order")
	}

	payment := &models.Payment{
		PaymentOrderID:   order.ID,
		ReceiptNo:        fmt.Sprintf("OR-%s-%s", time.Now().Format("20060102"), order.ID.String()[:8]),
		Amount:           float64(intent.Amount) / 100,
		PaymentType:      models.PaymentTypeOnline,
		PaymentReference: intent.ID,
	}

	if err := s.db.Create(payment).Error; err != nil {
		return nil, err
	}

	go s.notificationService.NotifyPaymentReceived(order, payment)
	return payment, nil
}

type RecordOTCPaymentRequest struct {
	ReceiptNo string  `json:"receipt_no" validate:"required,max=255"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

// RecordOTCPayment records an over-the-counter settlement captured by a
// cashier. The amount must match the order total exactly.
func (s *PaymentService) RecordOTCPayment(orderID, cashierID uuid.UUID, req *RecordOTCPaymentRequest) (*models.Payment, error) {
	order, err := s.GetPaymentOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !order.Ready() {
		return nil, guardRejected("payment order %s is not yet approved by a second signatory", order.No)
	}
	if order.Paid() {
		return nil, guardRejected("payment order %s has already been paid", order.No)
	}
	if req.Amount != order.Total() {
		return nil, guardRejected("payment of %.2f does not match the order total of %.2f", req.Amount, order.Total())
	}

	payment := &models.Payment{
		PaymentOrderID: order.ID,
		ReceiptNo:      req.ReceiptNo,
		Amount:         req.Amount,
		PaymentType:    models.PaymentTypeOTC,
		RecordedByID:   &cashierID,
	}

	if err := s.db.Create(payment).Error; err != nil {
		return nil, err
	}

	go s.notificationService.NotifyPaymentReceived(order, payment)
	return payment, nil
}

// IsPaid reports whether the application's payment order has been settled.
func (s *PaymentService) IsPaid(applicationID uuid.UUID) (bool, error) {
	order, err := s.GetPaymentOrderByApplication(applicationID)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return order.Paid(), nil
}
