/*-------------------------------------------------------------------------
 *
 * email.go
 *    Email delivery gateway for action requests
 *
 * Provides SMTP-based delivery for action request questions and apply
 * confirmations. Callers treat delivery as a black box that reports
 * success or failure; only a confirmed success may move a request to
 * sent.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/notifications/email.go
 *
 *-------------------------------------------------------------------------
 */

package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/launchbase/actionrequests/internal/metrics"
)

/* DeliveryResult reports the outcome of one send attempt */
type DeliveryResult struct {
	Success   bool
	Provider  string
	MessageID string
	Error     string
}

/* ActionRequestMessage carries the fields of an outbound question */
type ActionRequestMessage struct {
	To            string
	FirstName     string
	BusinessName  string
	QuestionText  string
	ProposedValue string
	ChecklistKey  string
	Token         string
	PreviewToken  string
}

/* ConfirmationMessage carries the fields of an apply confirmation */
type ConfirmationMessage struct {
	To           string
	FirstName    string
	BusinessName string
	ChecklistKey string
	AppliedValue string
	PreviewURL   string
}

/* Mailer is the delivery gateway contract */
type Mailer interface {
	SendActionRequest(ctx context.Context, msg ActionRequestMessage) DeliveryResult
	SendConfirmation(ctx context.Context, msg ConfirmationMessage) DeliveryResult
}

/* EmailService sends action request email via SMTP */
type EmailService struct {
	smtpHost     string
	smtpPort     int
	smtpUser     string
	smtpPassword string
	smtpFrom     string
	baseURL      string
	enabled      bool
}

/* NewEmailService creates a new email service. A service without SMTP
 * configuration reports delivery failure instead of pretending to send. */
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, smtpFrom, baseURL string) *EmailService {
	return &EmailService{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		smtpFrom:     smtpFrom,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		enabled:      smtpHost != "" && smtpPort > 0,
	}
}

/* ReplyToAddress builds the plus-addressed reply target that carries the
 * action token back through the inbound webhook. Empty when the from
 * address has no domain to borrow. */
func ReplyToAddress(from, token string) string {
	at := strings.LastIndex(from, "@")
	if at < 0 {
		return ""
	}
	return "approvals+" + token + from[at:]
}

/* TagSubject appends the [LB:token] tag so a reply that loses the
 * plus-address still resolves to its action request. */
func TagSubject(subject, token string) string {
	return fmt.Sprintf("%s [LB:%s]", subject, token)
}

/* SendActionRequest sends one question email with approve/edit/preview
 * links. The reply-to address and subject both carry the action token;
 * a plain "reply to this email" must survive the trip back through the
 * inbound webhook. */
func (e *EmailService) SendActionRequest(ctx context.Context, msg ActionRequestMessage) DeliveryResult {
	subject := TagSubject(fmt.Sprintf("Approve: %s", msg.QuestionText), msg.Token)

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Hi %s,</p>", msg.FirstName)
	fmt.Fprintf(&body, "<p>%s for <strong>%s</strong>:</p>", msg.QuestionText, msg.BusinessName)
	fmt.Fprintf(&body, "<blockquote>%s</blockquote>", msg.ProposedValue)
	fmt.Fprintf(&body, `<p><a href="%s/api/actions/%s/approve">Approve</a> &nbsp; <a href="%s/api/actions/%s/edit">Edit</a></p>`,
		e.baseURL, msg.Token, e.baseURL, msg.Token)
	if msg.PreviewToken != "" {
		fmt.Fprintf(&body, `<p><a href="%s/preview/proposed/%s">See what it will look like</a></p>`, e.baseURL, msg.PreviewToken)
	}
	fmt.Fprintf(&body, "<p>Reply to this email with changes and we'll take care of the rest.</p>")

	return e.send(ctx, msg.To, subject, ReplyToAddress(e.smtpFrom, msg.Token), body.String())
}

/* SendConfirmation sends the post-apply confirmation email */
func (e *EmailService) SendConfirmation(ctx context.Context, msg ConfirmationMessage) DeliveryResult {
	subject := fmt.Sprintf("Done: %s updated for %s", msg.ChecklistKey, msg.BusinessName)

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Hi %s,</p>", msg.FirstName)
	fmt.Fprintf(&body, "<p>We've applied your change to <strong>%s</strong>:</p>", msg.ChecklistKey)
	fmt.Fprintf(&body, "<blockquote>%s</blockquote>", msg.AppliedValue)
	if msg.PreviewURL != "" {
		fmt.Fprintf(&body, `<p><a href="%s">View your site</a></p>`, msg.PreviewURL)
	}

	return e.send(ctx, msg.To, subject, "", body.String())
}

func (e *EmailService) send(ctx context.Context, to, subject, replyTo, htmlBody string) DeliveryResult {
	if !e.enabled {
		metrics.RecordEmailSent("smtp", "disabled")
		return DeliveryResult{Success: false, Provider: "smtp", Error: "email service not configured"}
	}

	if !strings.Contains(to, "@") {
		metrics.RecordEmailSent("smtp", "invalid")
		return DeliveryResult{Success: false, Provider: "smtp", Error: fmt.Sprintf("invalid email address: %s", to)}
	}

	msg := fmt.Sprintf("From: %s\r\n", e.smtpFrom)
	msg += fmt.Sprintf("To: %s\r\n", to)
	if replyTo != "" {
		msg += fmt.Sprintf("Reply-To: %s\r\n", replyTo)
	}
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "MIME-Version: 1.0\r\n"
	msg += "Content-Type: text/html; charset=UTF-8\r\n"
	msg += "\r\n"
	msg += htmlBody

	auth := smtp.PlainAuth("", e.smtpUser, e.smtpPassword, e.smtpHost)
	addr := fmt.Sprintf("%s:%d", e.smtpHost, e.smtpPort)

	if err := smtp.SendMail(addr, auth, e.smtpFrom, []string{to}, []byte(msg)); err != nil {
		metrics.RecordEmailSent("smtp", "failed")
		metrics.ErrorWithContext(ctx, "Email send failed", err, map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return DeliveryResult{Success: false, Provider: "smtp", Error: err.Error()}
	}

	metrics.RecordEmailSent("smtp", "sent")
	return DeliveryResult{Success: true, Provider: "smtp"}
}

/* IsEnabled returns whether email delivery is configured */
func (e *EmailService) IsEnabled() bool {
	return e.enabled
}
