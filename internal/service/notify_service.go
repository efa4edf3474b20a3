package service

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"autoescuela/internal/entities"
	"autoescuela/internal/logger"
)

// BookingNotifier delivers booking status notifications. Delivery is
// best-effort: failures are logged and never surface to the caller.
type BookingNotifier interface {
	SendBookingEmail(booking entities.BookingResponse, status string)
	SendBookingSMS(booking entities.BookingResponse, status string)
}

type NotifyService struct {
	Sender *SenderService
}

func NewNotifyService(sender *SenderService) *NotifyService {
	return &NotifyService{Sender: sender}
}

func (n *NotifyService) SendBookingEmail(booking entities.BookingResponse, status string) {
	emailData := entities.BookingEmailData{
		StudentName:        booking.StudentName,
		BookingCode:        booking.Code,
		InstructorName:     booking.InstructorName,
		LocationName:       booking.LocationName,
		VehicleName:        booking.VehicleName,
		StartTimeFormatted: booking.StartTime.Format("02 Jan 2006 15:04 MST"),
		EndTimeFormatted:   booking.EndTime.Format("02 Jan 2006 15:04 MST"),
		Status:             status,
		CurrentYear:        time.Now().Year(),
	}

	subject := fmt.Sprintf("Your driving lesson is %s - Code: %s", status, emailData.BookingCode)
	plainTextBody := fmt.Sprintf(
		"Hello %s,\n\nYour driving lesson is %s.\n\n"+
			"Lesson details:\n"+
			"Booking code: %s\n"+
			"Instructor: %s\n"+
			"Location: %s\n"+
			"Starts: %s\n"+
			"Ends: %s\n\n"+
			"Thank you for learning with us.",
		emailData.StudentName, status, emailData.BookingCode, emailData.InstructorName,
		emailData.LocationName, emailData.StartTimeFormatted, emailData.EndTimeFormatted,
	)

	var htmlBody string
	tmplPath := filepath.Join("internal", "templates", "booking_email.html")
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		logger.Get().Warn("failed to parse booking email template", zap.String("path", tmplPath), zap.Error(err))
	} else {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, emailData); err != nil {
			logger.Get().Warn("failed to render booking email template", zap.String("code", emailData.BookingCode), zap.Error(err))
		} else {
			htmlBody = buf.String()
		}
	}

	go func() {
		if err := n.Sender.SendEmail(booking.StudentEmail, booking.StudentName, subject, plainTextBody, htmlBody); err != nil {
			logger.Get().Warn("booking email delivery failed",
				zap.String("code", booking.Code),
				zap.String("to", booking.StudentEmail),
				zap.Error(err))
		}
	}()
}

func (n *NotifyService) SendBookingSMS(booking entities.BookingResponse, status string) {
	message := fmt.Sprintf("AutoEscuela: your lesson %s is %s.\nStarts: %s with %s.\nDetails in your email.",
		booking.Code, status,
		booking.StartTime.Format("02/01 15:04"),
		booking.InstructorName,
	)

	go func() {
		if err := n.Sender.SendSMS(booking.StudentPhone, message); err != nil {
			logger.Get().Warn("booking SMS delivery failed",
				zap.String("code", booking.Code),
				zap.String("to", booking.StudentPhone),
				zap.Error(err))
		}
	}()
}
