package service

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"kelatic/internal/entities"
)

// Notification kinds recorded in notification_logs.
const (
	NotifyConfirmation = "confirmation"
	NotifyReschedule   = "reschedule"
	NotifyCancellation = "cancellation"
	NotifyReminder24h  = "reminder_24h"
	NotifyReminder2h   = "reminder_2h"
)

// NotificationLogStore records each dispatched notification.
// *repository.BookingRepository implements it.
type NotificationLogStore interface {
	InsertNotificationLog(appointmentID uuid.UUID, notificationType string, emailSent, smsSent bool, recipientEmail, recipientPhone string) error
}

type SenderService struct {
	logs NotificationLogStore
	loc  *time.Location
}

func NewSenderService(logs NotificationLogStore, loc *time.Location) *SenderService {
	return &SenderService{logs: logs, loc: loc}
}

// AppointmentEvent sends the client email and SMS for a booking event.
// Sends run in the background; failures are logged, never surfaced to the
// caller.
func (s *SenderService) AppointmentEvent(detail *entities.AppointmentDetail, kind string) {
	startLocal := detail.StartTime.In(s.loc)
	startFormatted := startLocal.Format("Monday, 02 Jan 2006 at 3:04 PM")

	subject, headline := s.wording(detail, kind, startFormatted)

	plainTextBody := fmt.Sprintf(
		"Hi %s,\n\n%s\n\n"+
			"Appointment details:\n"+
			"Service: %s\n"+
			"Stylist: %s\n"+
			"When: %s\n"+
			"Duration: %d minutes\n\n"+
			"Thank you for choosing KeLatic.\n",
		detail.ClientName, headline, detail.ServiceName, detail.StylistName,
		startFormatted, detail.TotalDuration(),
	)

	htmlBody := s.renderEmailHTML(detail, headline, startFormatted)

	emailQueued := detail.ClientEmail != ""
	smsQueued := detail.ClientPhone != ""

	if emailQueued {
		go func(toEmail, toName, subj, plain, html string, apptID uuid.UUID) {
			if err := SendEmailWithSendGrid(toEmail, toName, subj, plain, html); err != nil {
				log.Printf("ALERT (async): failed to send %s email for appointment %s: %v", kind, apptID, err)
			}
		}(detail.ClientEmail, detail.ClientName, subject, plainTextBody, htmlBody, detail.ID)
	}

	if smsQueued {
		smsMessage := fmt.Sprintf("KeLatic: %s\n%s with %s on %s.",
			headline, detail.ServiceName, detail.StylistName,
			startLocal.Format("02/01 3:04 PM"))
		go func(toPhone, body string, apptID uuid.UUID) {
			if err := SendSMS(toPhone, body); err != nil {
				log.Printf("ALERT (async): failed to send %s SMS for appointment %s: %v", kind, apptID, err)
			}
		}(detail.ClientPhone, smsMessage, detail.ID)
	}

	// The stylist gets a short heads-up when their book changes.
	if detail.StylistPhone != "" && (kind == NotifyConfirmation || kind == NotifyReschedule || kind == NotifyCancellation) {
		alert := fmt.Sprintf("KeLatic: %s booking update (%s) for %s on %s - client %s.",
			kind, detail.ServiceName, detail.StylistName,
			startLocal.Format("02/01 3:04 PM"), detail.ClientName)
		go func(toPhone, body string, apptID uuid.UUID) {
			if err := SendSMS(toPhone, body); err != nil {
				log.Printf("ALERT (async): failed to send stylist alert for appointment %s: %v", apptID, err)
			}
		}(detail.StylistPhone, alert, detail.ID)
	}

	if err := s.logs.InsertNotificationLog(detail.ID, kind, emailQueued, smsQueued, detail.ClientEmail, detail.ClientPhone); err != nil {
		log.Printf("Error recording %s notification for appointment %s: %v", kind, detail.ID, err)
	}
}

func (s *SenderService) wording(detail *entities.AppointmentDetail, kind, startFormatted string) (subject, headline string) {
	switch kind {
	case NotifyReschedule:
		subject = fmt.Sprintf("Your KeLatic appointment has been rescheduled - %s", startFormatted)
		headline = fmt.Sprintf("Your appointment has been moved to %s.", startFormatted)
	case NotifyCancellation:
		subject = "Your KeLatic appointment has been cancelled"
		headline = fmt.Sprintf("Your %s appointment on %s has been cancelled.", detail.ServiceName, startFormatted)
	case NotifyReminder24h:
		subject = "Reminder: your KeLatic appointment is tomorrow"
		headline = fmt.Sprintf("This is a reminder of your appointment on %s.", startFormatted)
	case NotifyReminder2h:
		subject = "Reminder: your KeLatic appointment is coming up"
		headline = fmt.Sprintf("Your appointment starts soon, at %s.", startFormatted)
	default:
		if detail.Status == "pending" {
			subject = "Your KeLatic booking is pending deposit"
			headline = fmt.Sprintf("Your %s booking for %s is reserved and will be confirmed once the deposit is paid.", detail.ServiceName, startFormatted)
		} else {
			subject = fmt.Sprintf("Your KeLatic appointment is confirmed - %s", startFormatted)
			headline = fmt.Sprintf("Your %s appointment is confirmed for %s.", detail.ServiceName, startFormatted)
		}
	}
	return subject, headline
}

func (s *SenderService) renderEmailHTML(detail *entities.AppointmentDetail, headline, startFormatted string) string {
	emailData := entities.AppointmentEmailData{
		ClientName:         detail.ClientName,
		StylistName:        detail.StylistName,
		ServiceName:        detail.ServiceName,
		StartTimeFormatted: startFormatted,
		DurationMinutes:    detail.TotalDuration(),
		Headline:           headline,
		CurrentYear:        time.Now().In(s.loc).Year(),
	}

	tmplPath := filepath.Join("internal", "templates", "appointment_email.html")
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		log.Printf("ALERT: error parsing HTML email template (%s): %v", tmplPath, err)
		return ""
	}

	var htmlBodyBuffer bytes.Buffer
	if err := tmpl.Execute(&htmlBodyBuffer, emailData); err != nil {
		log.Printf("ALERT: error executing HTML email template for appointment %s: %v", detail.ID, err)
		return ""
	}
	return htmlBodyBuffer.String()
}
