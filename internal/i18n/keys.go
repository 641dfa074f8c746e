// internal/i18n/keys.go
package i18n

// Translation keys used by the handlers.
const (
	KeyApplicationCreated   = "application.created"
	KeyApplicationSubmitted = "application.submitted"
	KeyApplicationReturned  = "application.returned"
	KeyApplicationAccepted  = "application.accepted"
	KeyPermitSigned         = "permit.signed"
	KeyPermitReleased       = "permit.released"
	KeyPermitValidated      = "permit.validated"
	KeyPaymentRecorded      = "payment.recorded"
	KeyInspectionScheduled  = "inspection.scheduled"
)
