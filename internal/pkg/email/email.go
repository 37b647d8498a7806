package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/openlab-hq/labops-backend-go/internal/config"
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// Service is the offline notification channel. Rendering is keyed by event
// kind and recipient role; transport is plain SMTP.
type Service interface {
	SendAlertRaised(to string, role user.Role, data AlertEmailData) error
	SendScheduleStatus(to string, data ScheduleEmailData) error
	SendDirectMessage(to string, data MessageEmailData) error
	SendTaskEvent(to string, data TaskEmailData) error
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
	}, nil
}

type AlertEmailData struct {
	RecipientName string
	AlertTitle    string
	AlertMessage  string
	AlertType     string
	Severity      string
	CreatedAt     string
}

// SendAlertRaised sends an alert notification email. Staff receive the
// operational variant, students the personal one.
func (s *emailServiceImpl) SendAlertRaised(to string, role user.Role, data AlertEmailData) error {
	tmplName := "alert_raised_student.html"
	if role.IsStaff() {
		tmplName = "alert_raised_staff.html"
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, tmplName, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.sendHTML(to, fmt.Sprintf("[%s] %s", data.Severity, data.AlertTitle), body.String())
}

type ScheduleEmailData struct {
	RecipientName string
	StudentName   string
	WeekStart     string
	Status        string
	Reason        string
	TotalHours    string
}

// SendScheduleStatus sends a weekly-schedule lifecycle email
func (s *emailServiceImpl) SendScheduleStatus(to string, data ScheduleEmailData) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "schedule_status.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.sendHTML(to, fmt.Sprintf("Weekly schedule %s (%s)", data.Status, data.WeekStart), body.String())
}

type MessageEmailData struct {
	RecipientName string
	SenderName    string
	Message       string
}

// SendDirectMessage sends a direct-message fallback email
func (s *emailServiceImpl) SendDirectMessage(to string, data MessageEmailData) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "direct_message.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.sendHTML(to, fmt.Sprintf("New message from %s", data.SenderName), body.String())
}

type TaskEmailData struct {
	RecipientName string
	TaskTitle     string
	ProjectName   string
	Event         string
	DueDate       string
}

// SendTaskEvent sends a task assignment or overdue email
func (s *emailServiceImpl) SendTaskEvent(to string, data TaskEmailData) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "task_event.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.sendHTML(to, fmt.Sprintf("Task %s: %s", data.Event, data.TaskTitle), body.String())
}

func (s *emailServiceImpl) sendHTML(to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := s.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := smtp.SendMail(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Wait before retrying (exponential backoff: 1s, 2s, 4s)
		if attempt < maxRetries {
			time.Sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
