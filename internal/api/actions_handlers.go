/*-------------------------------------------------------------------------
 *
 * actions_handlers.go
 *    Customer-facing token link handlers
 *
 * The approve and edit links from action request emails land here. The
 * token in the URL is the only credential, so every page must be a
 * friendly terminal state: a customer clicking a stale link twice gets
 * "already done", never an error dump.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/api/actions_handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/launchbase/actionrequests/internal/actionrequests"
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/launchbase/actionrequests/internal/learning"
	"github.com/launchbase/actionrequests/internal/metrics"
	"github.com/launchbase/actionrequests/internal/notifications"
)

var terminalPageTemplate = template.Must(template.New("terminal").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body style="font-family: sans-serif; padding: 40px; text-align: center;">
  <h1>{{.Title}}</h1>
  <p>{{.Message}}</p>
</body>
</html>
`))

var editFormTemplate = template.Must(template.New("editform").Parse(`<!DOCTYPE html>
<html>
<head><title>Suggest a Change</title></head>
<body style="font-family: sans-serif; max-width: 560px; margin: 0 auto; padding: 40px;">
  <h1>Suggest a Change</h1>
  <p>We proposed the following for <strong>{{.ChecklistKey}}</strong>:</p>
  <blockquote style="background: #f3f4f6; padding: 12px 16px; border-radius: 6px;">{{.ProposedValue}}</blockquote>
  <form method="POST" action="/api/actions/{{.Token}}/edit">
    <p><label for="reply">What would you like instead?</label></p>
    <textarea id="reply" name="reply" rows="4" style="width: 100%;" required></textarea>
    <p><button type="submit" style="background: #2563eb; color: white; padding: 10px 20px; border: none; border-radius: 6px;">Send</button></p>
  </form>
</body>
</html>
`))

type terminalPage struct {
	Title   string
	Message string
}

func renderTerminalPage(w http.ResponseWriter, status int, title, message string) {
	var buf bytes.Buffer
	if err := terminalPageTemplate.Execute(&buf, terminalPage{Title: title, Message: message}); err != nil {
		http.Error(w, title, status)
		return
	}
	respondHTML(w, status, buf.String())
}

/* ApproveAction handles GET /api/actions/{token}/approve. One click
 * records the approval, applies it, locks it, and confirms by email. */
func (h *Handlers) ApproveAction(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	req, err := h.service.GetByToken(r.Context(), token)
	if err != nil {
		renderTerminalPage(w, http.StatusInternalServerError, "Something Went Wrong", "We couldn't process your approval right now. Please try again in a few minutes.")
		return
	}
	if req == nil {
		renderTerminalPage(w, http.StatusNotFound, "Link Not Found", "This approval link doesn't exist. Please check your email for the latest one.")
		return
	}

	ctx := metrics.WithActionRequestIDLogContext(r.Context(), req.ID)
	ctx = metrics.WithIntakeIDLogContext(ctx, req.IntakeID)
	ctx = metrics.WithTenantLogContext(ctx, req.Tenant)

	switch req.Status {
	case db.StatusApplied, db.StatusLocked:
		renderTerminalPage(w, http.StatusOK, "Already Done", "This change was already approved and applied. Nothing more to do.")
		return
	case db.StatusExpired:
		renderTerminalPage(w, http.StatusGone, "Link Expired", "This approval link has expired. We'll follow up with a fresh one.")
		return
	case db.StatusNeedsHuman:
		renderTerminalPage(w, http.StatusOK, "We're On It", "This request is with our team. We'll be in touch shortly.")
		return
	}
	if req.ExpiresAt != nil && time.Now().After(*req.ExpiresAt) {
		renderTerminalPage(w, http.StatusGone, "Link Expired", "This approval link has expired. We'll follow up with a fresh one.")
		return
	}

	classification := actionrequests.Classification{Intent: actionrequests.IntentApprove, Confidence: 0.95, Rule: 1}
	if _, err := h.service.RecordReply(ctx, req, db.ReplyChannelLink, classification, map[string]interface{}{
		"method": "link_click",
	}); err != nil {
		renderTerminalPage(w, http.StatusInternalServerError, "Something Went Wrong", "We couldn't record your approval right now. Please try again in a few minutes.")
		return
	}

	if err := h.tracker.RecordOutcome(ctx, req.Tenant, req.ChecklistKey, learning.OutcomeApproved); err != nil {
		metrics.WarnWithContext(ctx, "Learning update failed", map[string]interface{}{"error": err.Error()})
	}

	h.applyAndFinish(ctx, w, req)
}

/* applyAndFinish runs the apply ladder for an approved request and
 * renders the matching terminal page */
func (h *Handlers) applyAndFinish(ctx context.Context, w http.ResponseWriter, req *db.ActionRequest) {
	result := h.service.Apply(ctx, req.ID)

	switch {
	case result.Success:
		if err := h.service.ConfirmAndLock(ctx, req.ID); err != nil {
			metrics.ErrorWithContext(ctx, "Lock after approve failed", err, map[string]interface{}{
				"action_request_id": req.ID.String(),
			})
		}
		h.sendConfirmation(ctx, req)
		renderTerminalPage(w, http.StatusOK, "Approved!", "Your change is live. Thanks for the quick turnaround.")

	case result.NeedsConfirmation:
		/* Medium-risk replies have no self-serve confirm step; a human
		 * closes them out so they cannot sit in responded forever. */
		if err := h.service.Escalate(ctx, req, "Medium-risk change needs confirmation", map[string]interface{}{
			"applyOutcome": "needs_confirmation",
		}); err != nil {
			metrics.ErrorWithContext(ctx, "Escalation failed", err, nil)
		}
		renderTerminalPage(w, http.StatusOK, "One More Step", "Got it. This change needs a quick double-check from our team before it goes live. We'll confirm with you shortly.")

	case result.NeedsHuman:
		if err := h.service.Escalate(ctx, req, "Approval could not auto-apply", map[string]interface{}{
			"applyOutcome": "needs_human",
		}); err != nil {
			metrics.ErrorWithContext(ctx, "Escalation failed", err, nil)
		}
		renderTerminalPage(w, http.StatusOK, "We're On It", "Thanks! A member of our team will review this and apply it shortly.")

	case result.Error == "Already applied":
		renderTerminalPage(w, http.StatusOK, "Already Done", "This change was already approved and applied. Nothing more to do.")

	case result.Error == "Expired":
		renderTerminalPage(w, http.StatusGone, "Link Expired", "This approval link has expired. We'll follow up with a fresh one.")

	default:
		renderTerminalPage(w, http.StatusInternalServerError, "Something Went Wrong", "We couldn't apply this change right now. Our team has been notified.")
	}
}

/* sendConfirmation emails the post-apply confirmation. Best-effort: the
 * change is already live either way. */
func (h *Handlers) sendConfirmation(ctx context.Context, req *db.ActionRequest) {
	intake, err := h.store.GetIntake(ctx, req.IntakeID)
	if err != nil || intake == nil {
		metrics.WarnWithContext(ctx, "Confirmation email skipped: intake unavailable", map[string]interface{}{
			"intake_id": req.IntakeID,
		})
		return
	}

	previewURL := ""
	if intake.PreviewURL != nil {
		previewURL = *intake.PreviewURL
	}

	result := h.mailer.SendConfirmation(ctx, notifications.ConfirmationMessage{
		To:           intake.Email,
		FirstName:    firstName(intake.ContactName),
		BusinessName: intake.BusinessName,
		ChecklistKey: req.ChecklistKey,
		AppliedValue: req.ProposedValue.String(),
		PreviewURL:   previewURL,
	})
	if !result.Success {
		metrics.WarnWithContext(ctx, "Confirmation email failed", map[string]interface{}{
			"action_request_id": req.ID.String(),
			"error":             result.Error,
		})
	}
}

func firstName(contactName string) string {
	parts := strings.Fields(contactName)
	if len(parts) == 0 {
		return contactName
	}
	return parts[0]
}

/* EditActionForm handles GET /api/actions/{token}/edit */
func (h *Handlers) EditActionForm(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	req, err := h.service.GetByToken(r.Context(), token)
	if err != nil {
		renderTerminalPage(w, http.StatusInternalServerError, "Something Went Wrong", "We couldn't load this request right now. Please try again in a few minutes.")
		return
	}
	if req == nil {
		renderTerminalPage(w, http.StatusNotFound, "Link Not Found", "This link doesn't exist. Please check your email for the latest one.")
		return
	}

	switch req.Status {
	case db.StatusApplied, db.StatusLocked:
		renderTerminalPage(w, http.StatusOK, "Already Done", "This change was already approved and applied. Reply to your email if you'd like something different.")
		return
	case db.StatusExpired:
		renderTerminalPage(w, http.StatusGone, "Link Expired", "This link has expired. We'll follow up with a fresh one.")
		return
	}

	var buf bytes.Buffer
	err = editFormTemplate.Execute(&buf, struct {
		ChecklistKey  string
		ProposedValue string
		Token         string
	}{
		ChecklistKey:  req.ChecklistKey,
		ProposedValue: req.ProposedValue.String(),
		Token:         req.Token,
	})
	if err != nil {
		renderTerminalPage(w, http.StatusInternalServerError, "Something Went Wrong", "We couldn't load the edit form right now.")
		return
	}
	respondHTML(w, http.StatusOK, buf.String())
}

/* SubmitActionEdit handles POST /api/actions/{token}/edit. The form
 * reply runs through the same classifier as an email reply. */
func (h *Handlers) SubmitActionEdit(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	req, err := h.service.GetByToken(r.Context(), token)
	if err != nil {
		renderTerminalPage(w, http.StatusInternalServerError, "Something Went Wrong", "We couldn't process your reply right now. Please try again in a few minutes.")
		return
	}
	if req == nil {
		renderTerminalPage(w, http.StatusNotFound, "Link Not Found", "This link doesn't exist. Please check your email for the latest one.")
		return
	}

	ctx := metrics.WithActionRequestIDLogContext(r.Context(), req.ID)
	ctx = metrics.WithIntakeIDLogContext(ctx, req.IntakeID)
	ctx = metrics.WithTenantLogContext(ctx, req.Tenant)

	switch req.Status {
	case db.StatusApplied, db.StatusLocked:
		renderTerminalPage(w, http.StatusOK, "Already Done", "This change was already approved and applied. Reply to your email if you'd like something different.")
		return
	case db.StatusExpired:
		renderTerminalPage(w, http.StatusGone, "Link Expired", "This link has expired. We'll follow up with a fresh one.")
		return
	}

	if err := r.ParseForm(); err != nil {
		renderTerminalPage(w, http.StatusBadRequest, "Something Went Wrong", "We couldn't read your reply. Please go back and try again.")
		return
	}
	reply := r.PostFormValue("reply")
	if reply == "" {
		renderTerminalPage(w, http.StatusBadRequest, "Empty Reply", "Please go back and tell us what you'd like instead.")
		return
	}

	classification := actionrequests.Classify(reply, req.ProposedValue.V)
	recorded, err := h.service.RecordReply(ctx, req, db.ReplyChannelForm, classification, map[string]interface{}{
		"method": "edit_form",
		"reply":  reply,
	})
	if err != nil {
		renderTerminalPage(w, http.StatusInternalServerError, "Something Went Wrong", "We couldn't record your reply right now. Please try again in a few minutes.")
		return
	}
	if !recorded {
		renderTerminalPage(w, http.StatusOK, "Already Handled", "We've already received a reply for this request.")
		return
	}

	if err := h.tracker.RecordOutcome(ctx, req.Tenant, req.ChecklistKey, learning.OutcomeForIntent(string(classification.Intent))); err != nil {
		metrics.WarnWithContext(ctx, "Learning update failed", map[string]interface{}{"error": err.Error()})
	}

	switch classification.Intent {
	case actionrequests.IntentApprove, actionrequests.IntentEditExact:
		h.applyAndFinish(ctx, w, req)

	default:
		if err := h.service.Escalate(ctx, req, "Form reply needs human review", map[string]interface{}{
			"intent":     string(classification.Intent),
			"confidence": classification.Confidence,
		}); err != nil {
			metrics.ErrorWithContext(ctx, "Escalation failed", err, nil)
		}
		renderTerminalPage(w, http.StatusOK, "Got It", "Thanks! A member of our team will review your note and follow up.")
	}
}
