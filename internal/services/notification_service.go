// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pmdq/biodiversity-backend/internal/config"
	"github.com/pmdq/biodiversity-backend/internal/models"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: cfg,
	}
}

type EmailData struct {
	To       string
	Subject  string
	Template string
	Data     map[string]interface{}
}

// SendEmail sends an email using SMTP
func (s *NotificationService) SendEmail(emailData EmailData) error {
	tmpl, exists := emailTemplates[emailData.Template]
	if !exists {
		return fmt.Errorf("email template %s not found", emailData.Template)
	}

	t, err := template.New(emailData.Template).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse email template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, emailData.Data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUser, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, emailData.To, emailData.Subject, body.String())

	addr := s.config.Email.SMTPHost + ":" + s.config.Email.SMTPPort
	if err := smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{emailData.To}, []byte(msg)); err != nil {
		logrus.Errorf("Failed to send email to %s: %v", emailData.To, err)
		return err
	}

	logrus.Infof("Email sent to %s: %s", emailData.To, emailData.Subject)
	return nil
}

// CreateAdminNotification stores an in-app notification for the admin
// dashboard.
func (s *NotificationService) CreateAdminNotification(notificationType, title, message string, data models.JSONB, priority string) {
	notification := models.AdminNotification{
		Type:     notificationType,
		Title:    title,
		Message:  message,
		Data:     data,
		Priority: priority,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		logrus.Errorf("Failed to create admin notification: %v", err)
	}
}

// activeAdmins returns the admins who should receive workflow emails.
func (s *NotificationService) activeAdmins() []models.User {
	var admins []models.User
	s.db.Where("role = ? AND status = ?", models.UserRoleAdmin, models.UserStatusActive).Find(&admins)
	return admins
}

// NotifyApplicationSubmitted tells every active admin a new application is
// waiting for review.
func (s *NotificationService) NotifyApplicationSubmitted(application *models.PermitApplication) {
	s.CreateAdminNotification("application_submitted",
		"Application submitted",
		fmt.Sprintf("Application %s (%s) was submitted for review", application.No, application.PermitType.Label()),
		models.JSONB{"application_id": application.ID.String(), "permit_type": string(application.PermitType)},
		"high")

	for _, admin := range s.activeAdmins() {
		s.SendEmail(EmailData{
			To:       admin.Email,
			Subject:  "New permit application submitted",
			Template: "application_submitted",
			Data: map[string]interface{}{
				"ApplicationNo": application.No,
				"PermitType":    application.PermitType.Label(),
				"ReviewURL":     fmt.Sprintf("%s/admin/applications/%s", s.config.Frontend.BaseURL, application.ID),
			},
		})
	}
}

// NotifyApplicationReturned tells the client their application needs rework.
func (s *NotificationService) NotifyApplicationReturned(application *models.PermitApplication, remarks string) {
	var client models.User
	if err := s.db.First(&client, "id = ?", application.ClientID).Error; err != nil {
		logrus.Errorf("Failed to load client for return notice: %v", err)
		return
	}

	s.SendEmail(EmailData{
		To:       client.Email,
		Subject:  "Your permit application was returned",
		Template: "application_returned",
		Data: map[string]interface{}{
			"Name":          client.FullName(),
			"ApplicationNo": application.No,
			"Remarks":       remarks,
			"EditURL":       fmt.Sprintf("%s/applications/%s", s.config.Frontend.BaseURL, application.ID),
		},
	})
}

// NotifyApplicationAccepted tells the client their application passed review.
func (s *NotificationService) NotifyApplicationAccepted(application *models.PermitApplication) {
	var client models.User
	if err := s.db.First(&client, "id = ?", application.ClientID).Error; err != nil {
		logrus.Errorf("Failed to load client for acceptance notice: %v", err)
		return
	}

	s.SendEmail(EmailData{
		To:       client.Email,
		Subject:  "Your permit application was accepted",
		Template: "application_accepted",
		Data: map[string]interface{}{
			"Name":          client.FullName(),
			"ApplicationNo": application.No,
			"PermitType":    application.PermitType.Label(),
		},
	})
}

// NotifyPaymentReceived records an admin notice that an order was settled.
func (s *NotificationService) NotifyPaymentReceived(order *models.PaymentOrder, payment *models.Payment) {
	s.CreateAdminNotification("payment_received",
		"Payment received",
		fmt.Sprintf("Payment of %.2f recorded against order %s (receipt %s)", payment.Amount, order.No, payment.ReceiptNo),
		models.JSONB{"payment_order_id": order.ID.String(), "receipt_no": payment.ReceiptNo},
		"medium")
}

// NotifyPermitAwaitingSignatures asks the permit signatories to sign a newly
// issued local transport permit.
func (s *NotificationService) NotifyPermitAwaitingSignatures(permit *models.Permit) {
	var signatories []models.User
	s.db.Where("role = ? AND status = ? AND permit_signatory = ?",
		models.UserRoleAdmin, models.UserStatusActive, true).Find(&signatories)

	for _, signatory := range signatories {
		s.SendEmail(EmailData{
			To:       signatory.Email,
			Subject:  "Permit awaiting your signature",
			Template: "permit_awaiting_signature",
			Data: map[string]interface{}{
				"Name":     signatory.FullName(),
				"PermitNo": permit.PermitNo,
				"SignURL":  fmt.Sprintf("%s/admin/permits/%s", s.config.Frontend.BaseURL, permit.ID),
			},
		})
	}
}

// NotifyPermitReleased tells the client their permit is ready and leaves a
// record on the admin dashboard.
func (s *NotificationService) NotifyPermitReleased(permit *models.Permit) {
	s.CreateAdminNotification("permit_released",
		"Permit released",
		fmt.Sprintf("Permit %s (%s) was released to the client", permit.PermitNo, permit.PermitType.Label()),
		models.JSONB{"permit_id": permit.ID.String(), "permit_no": permit.PermitNo},
		"medium")

	var client models.User
	if err := s.db.First(&client, "id = ?", permit.ClientID).Error; err != nil {
		logrus.Errorf("Failed to load client for release notice: %v", err)
		return
	}

	validUntil := ""
	if permit.ValidUntil != nil {
		validUntil = permit.ValidUntil.Format("January 2, 2006")
	}

	s.SendEmail(EmailData{
		To:       client.Email,
		Subject:  "Your permit has been released",
		Template: "permit_released",
		Data: map[string]interface{}{
			"Name":       client.FullName(),
			"PermitNo":   permit.PermitNo,
			"PermitType": permit.PermitType.Label(),
			"ValidUntil": validUntil,
		},
	})

	for _, admin := range s.activeAdmins() {
		s.SendEmail(EmailData{
			To:       admin.Email,
			Subject:  "A permit was released",
			Template: "permit_released_admin",
			Data: map[string]interface{}{
				"Name":       admin.FullName(),
				"PermitNo":   permit.PermitNo,
				"PermitType": permit.PermitType.Label(),
				"Client":     client.FullName(),
			},
		})
	}
}

// NotifyPermitExpired tells the client their permit has lapsed and leaves a
// record on the admin dashboard. Called by the expiry sweep, once per permit
// it expires.
func (s *NotificationService) NotifyPermitExpired(permit *models.Permit) {
	s.CreateAdminNotification("permit_expired",
		"Permit expired",
		fmt.Sprintf("Permit %s (%s) passed its validity window and was marked expired", permit.PermitNo, permit.PermitType.Label()),
		models.JSONB{"permit_id": permit.ID.String(), "permit_no": permit.PermitNo},
		"low")

	var client models.User
	if err := s.db.First(&client, "id = ?", permit.ClientID).Error; err != nil {
		logrus.Errorf("Failed to load client for expiry notice: %v", err)
		return
	}

	validUntil := ""
	if permit.ValidUntil != nil {
		validUntil = permit.ValidUntil.Format("January 2, 2006")
	}

	s.SendEmail(EmailData{
		To:       client.Email,
		Subject:  "Your permit has expired",
		Template: "permit_expired",
		Data: map[string]interface{}{
			"Name":       client.FullName(),
			"PermitNo":   permit.PermitNo,
			"PermitType": permit.PermitType.Label(),
			"ValidUntil": validUntil,
		},
	})

	for _, admin := range s.activeAdmins() {
		s.SendEmail(EmailData{
			To:       admin.Email,
			Subject:  "A released permit has expired",
			Template: "permit_expired_admin",
			Data: map[string]interface{}{
				"Name":       admin.FullName(),
				"PermitNo":   permit.PermitNo,
				"PermitType": permit.PermitType.Label(),
				"Client":     client.FullName(),
			},
		})
	}
}

// NotifyPermitValidated tells the client their permit was used and leaves a
// record on the admin dashboard.
func (s *NotificationService) NotifyPermitValidated(permit *models.Permit, validator *models.User) {
	s.CreateAdminNotification("permit_validated",
		"Permit validated",
		fmt.Sprintf("Permit %s was validated in the field by %s", permit.PermitNo, validator.FullName()),
		models.JSONB{"permit_id": permit.ID.String(), "validator_id": validator.ID.String()},
		"medium")

	var client models.User
	if err := s.db.First(&client, "id = ?", permit.ClientID).Error; err != nil {
		logrus.Errorf("Failed to load client for validation notice: %v", err)
		return
	}

	s.SendEmail(EmailData{
		To:       client.Email,
		Subject:  "Your permit has been validated",
		Template: "permit_validated",
		Data: map[string]interface{}{
			"Name":       client.FullName(),
			"PermitNo":   permit.PermitNo,
			"PermitType": permit.PermitType.Label(),
		},
	})
}

// NotifyApplicationUnsubmitted records that the client withdrew an
// application that was waiting for review.
func (s *NotificationService) NotifyApplicationUnsubmitted(application *models.PermitApplication) {
	s.CreateAdminNotification("application_unsubmitted",
		"Application withdrawn",
		fmt.Sprintf("Application %s (%s) was withdrawn by the applicant", application.No, application.PermitType.Label()),
		models.JSONB{"application_id": application.ID.String(), "permit_type": string(application.PermitType)},
		"low")
}

// NotifyInspectionSigned records that the assigned officer signed the
// inspection report, unblocking issuance.
func (s *NotificationService) NotifyInspectionSigned(inspection *models.Inspection) {
	s.CreateAdminNotification("inspection_signed",
		"Inspection report signed",
		fmt.Sprintf("Inspection %s was signed by the assigned officer", inspection.No),
		models.JSONB{"inspection_id": inspection.ID.String(), "inspection_no": inspection.No},
		"medium")
}

// NotifyInspectionScheduled tells the client and the officer about the visit.
func (s *NotificationService) NotifyInspectionScheduled(inspection *models.Inspection, application *models.PermitApplication) {
	var client models.User
	if err := s.db.First(&client, "id = ?", application.ClientID).Error; err != nil {
		logrus.Errorf("Failed to load client for inspection notice: %v", err)
		return
	}

	s.SendEmail(EmailData{
		To:       client.Email,
		Subject:  "Site inspection scheduled",
		Template: "inspection_scheduled",
		Data: map[string]interface{}{
			"Name":          client.FullName(),
			"ApplicationNo": application.No,
			"ScheduledDate": inspection.ScheduledDate.Format("January 2, 2006"),
		},
	})
}

// Email templates
var emailTemplates = map[string]string{
	"application_submitted": `
		<h2>New Application Submitted</h2>
		<p>Application <strong>{{.ApplicationNo}}</strong> ({{.PermitType}}) is waiting for review.</p>
		<p><a href="{{.ReviewURL}}">Review application</a></p>
	`,
	"application_returned": `
		<h2>Application Returned</h2>
		<p>Dear {{.Name}},</p>
		<p>Your application <strong>{{.ApplicationNo}}</strong> was returned with the following remarks:</p>
		<blockquote>{{.Remarks}}</blockquote>
		<p>Please address the remarks and resubmit. <a href="{{.EditURL}}">Open application</a></p>
	`,
	"application_accepted": `
		<h2>Application Accepted</h2>
		<p>Dear {{.Name}},</p>
		<p>Your application <strong>{{.ApplicationNo}}</strong> for a {{.PermitType}} was accepted.
		You will be notified once your payment order is ready.</p>
	`,
	"permit_awaiting_signature": `
		<h2>Permit Awaiting Signature</h2>
		<p>Dear {{.Name}},</p>
		<p>Permit <strong>{{.PermitNo}}</strong> requires your signature before release.</p>
		<p><a href="{{.SignURL}}">Open permit</a></p>
	`,
	"permit_released": `
		<h2>Permit Released</h2>
		<p>Dear {{.Name}},</p>
		<p>Your {{.PermitType}} <strong>{{.PermitNo}}</strong> has been released{{if .ValidUntil}} and is valid until {{.ValidUntil}}{{end}}.</p>
	`,
	"permit_expired": `
		<h2>Permit Expired</h2>
		<p>Dear {{.Name}},</p>
		<p>Your {{.PermitType}} <strong>{{.PermitNo}}</strong> {{if .ValidUntil}}was valid until {{.ValidUntil}} and {{end}}has expired.
		You may apply for a new permit at any time.</p>
	`,
	"permit_expired_admin": `
		<h2>Permit Expired</h2>
		<p>Dear {{.Name}},</p>
		<p>Permit <strong>{{.PermitNo}}</strong> ({{.PermitType}}) held by {{.Client}} passed its validity window and was marked expired.</p>
	`,
	"permit_released_admin": `
		<h2>Permit Released</h2>
		<p>Dear {{.Name}},</p>
		<p>Permit <strong>{{.PermitNo}}</strong> ({{.PermitType}}) was released to {{.Client}}.</p>
	`,
	"permit_validated": `
		<h2>Permit Validated</h2>
		<p>Dear {{.Name}},</p>
		<p>Your {{.PermitType}} <strong>{{.PermitNo}}</strong> was validated in the field and is now marked as used.</p>
	`,
	"inspection_scheduled": `
		<h2>Inspection Scheduled</h2>
		<p>Dear {{.Name}},</p>
		<p>A site inspection for application <strong>{{.ApplicationNo}}</strong> has been scheduled on {{.ScheduledDate}}.</p>
	`,
}
