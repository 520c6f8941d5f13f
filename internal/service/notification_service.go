package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	"strings"
	texttmpl "text/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/class-scheduler/pkg/jobs"
	"github.com/noah-isme/class-scheduler/pkg/mailer"
)

// Email template names.
const (
	TemplateRescheduleConfirmation = "reschedule_confirmation"
	TemplateRescheduleCancellation = "reschedule_cancellation"
)

const jobTypeEmail = "email"

//go:embed templates/email/*.txt templates/email/*.gohtml
var emailTemplates embed.FS

// ConfirmationEmail carries the facts of a reschedule to both parties.
type ConfirmationEmail struct {
	StudentName      string
	ProfessorEmail   string
	StudentEmail     string
	SelectedDate     string
	SelectedTimeSlot string
	OriginalDate     string
	TemplateType     string
}

// NotificationServiceConfig tunes delivery.
type NotificationServiceConfig struct {
	Enabled    bool
	AppName    string
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

type emailTemplate struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

type emailContext struct {
	AppName string
	Data    ConfirmationEmail
}

// NotificationService renders reschedule emails and delivers them off the
// request path. Delivery failures never affect the committed reschedule.
type NotificationService struct {
	sender    mailer.Sender
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
	templates map[string]emailTemplate
	cfg       NotificationServiceConfig
}

// NewNotificationService parses the embedded templates and builds the worker queue.
func NewNotificationService(sender mailer.Sender, metrics *MetricsService, logger *zap.Logger, cfg NotificationServiceConfig) (*NotificationService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AppName == "" {
		cfg.AppName = "Class Scheduler"
	}

	templates := make(map[string]emailTemplate)
	for _, name := range []string{TemplateRescheduleConfirmation, TemplateRescheduleCancellation} {
		text, err := texttmpl.ParseFS(emailTemplates, "templates/email/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("parse %s text template: %w", name, err)
		}
		html, err := htmltmpl.ParseFS(emailTemplates, "templates/email/_base.gohtml", "templates/email/"+name+".gohtml")
		if err != nil {
			return nil, fmt.Errorf("parse %s html template: %w", name, err)
		}
		templates[name] = emailTemplate{text: text.Option("missingkey=error"), html: html}
	}

	s := &NotificationService{
		sender:    sender,
		metrics:   metrics,
		logger:    logger,
		templates: templates,
		cfg:       cfg,
	}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		DeadLetter: s.deadLetter,
		Logger:     logger,
	})
	return s, nil
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s.cfg.Enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the workers; undelivered emails are dropped.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Pending reports emails accepted but not yet delivered or dead-lettered.
func (s *NotificationService) Pending() int64 {
	return s.queue.Pending()
}

// SendConfirmationEmail renders email and queues it. It returns once the
// message is queued, not delivered.
func (s *NotificationService) SendConfirmationEmail(ctx context.Context, email ConfirmationEmail) error {
	if s == nil || !s.cfg.Enabled || s.sender == nil {
		s.outcome("skipped")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := s.Render(email)
	if err != nil {
		s.outcome("failed")
		return err
	}
	if !msg.HasRecipients() {
		s.outcome("skipped")
		return nil
	}

	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobTypeEmail, Payload: msg}); err != nil {
		s.outcome("dropped")
		return err
	}
	s.outcome("queued")
	return nil
}

// Render builds the message for email without sending it. Recipients with an
// empty address are left out.
func (s *NotificationService) Render(email ConfirmationEmail) (mailer.Message, error) {
	name := email.TemplateType
	if name == "" {
		name = TemplateRescheduleConfirmation
	}
	tmpl, ok := s.templates[name]
	if !ok {
		return mailer.Message{}, fmt.Errorf("unknown email template %q", name)
	}

	data := emailContext{AppName: s.cfg.AppName, Data: email}
	var subject, text, html bytes.Buffer
	if err := tmpl.text.ExecuteTemplate(&subject, "subject", data); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := tmpl.text.ExecuteTemplate(&text, "body", data); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s body: %w", name, err)
	}
	if err := tmpl.html.ExecuteTemplate(&html, "base", data); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s html: %w", name, err)
	}

	msg := mailer.Message{
		Subject: strings.TrimSpace(subject.String()),
		Text:    strings.TrimSpace(text.String()),
		HTML:    html.String(),
	}
	if email.ProfessorEmail != "" {
		msg.To = append(msg.To, mail.Address{Address: email.ProfessorEmail})
	}
	if email.StudentEmail != "" {
		addr := mail.Address{Name: email.StudentName, Address: email.StudentEmail}
		msg.To = append(msg.To, addr)
		msg.ReplyTo = &addr
	}
	return msg, nil
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return err
	}
	s.outcome("sent")
	return nil
}

func (s *NotificationService) deadLetter(job jobs.Job, err error) {
	s.outcome("failed")
	s.logger.Error("notification abandoned", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
}

func (s *NotificationService) outcome(outcome string) {
	if s == nil {
		return
	}
	s.metrics.NotificationOutcome(outcome)
}
