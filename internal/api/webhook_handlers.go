/*-------------------------------------------------------------------------
 *
 * webhook_handlers.go
 *    Inbound email webhook
 *
 * Receives provider callbacks for customer reply emails, resolves the
 * action request from the plus-addressed recipient or the subject tag,
 * and routes the classified reply through the lifecycle. The webhook
 * always answers 200: a non-2xx would make the provider retry and
 * redeliver replies we already handled.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/api/webhook_handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/launchbase/actionrequests/internal/actionrequests"
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/launchbase/actionrequests/internal/learning"
	"github.com/launchbase/actionrequests/internal/metrics"
)

/* inboundEmail is the provider callback payload */
type inboundEmail struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

var (
	/* approvals+TOKEN@ in the recipient address */
	plusAddressPattern = regexp.MustCompile(`approvals\+([A-Za-z0-9_]+)@`)
	/* [LB:TOKEN] in the subject, surviving Re:/Fwd: prefixes */
	subjectTagPattern = regexp.MustCompile(`\[LB:([A-Za-z0-9_]+)\]`)
)

/* extractToken resolves the action token from the recipient address
 * first, then the subject tag. */
func extractToken(to, subject string) string {
	if m := plusAddressPattern.FindStringSubmatch(to); m != nil {
		return m[1]
	}
	if m := subjectTagPattern.FindStringSubmatch(subject); m != nil {
		return m[1]
	}
	return ""
}

/* Markers that start quoted history in common mail clients */
var quoteMarkers = []string{
	"-----original message-----",
	"________________________________",
}

var onWrotePattern = regexp.MustCompile(`(?i)^on .{1,200} wrote:$`)

/* stripQuotedReplies keeps only the customer's new text above the
 * quoted history */
func stripQuotedReplies(text string) string {
	lines := strings.Split(text, "\n")
	var kept []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		if onWrotePattern.MatchString(trimmed) || strings.HasPrefix(trimmed, ">") {
			break
		}
		stop := false
		for _, marker := range quoteMarkers {
			if strings.HasPrefix(lower, marker) {
				stop = true
				break
			}
		}
		if stop {
			break
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

/* InboundEmail handles POST /api/webhooks/email-inbound */
func (h *Handlers) InboundEmail(w http.ResponseWriter, r *http.Request) {
	var payload inboundEmail
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		metrics.WarnWithContext(r.Context(), "Unparseable inbound email payload", map[string]interface{}{
			"error": err.Error(),
		})
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "unparseable payload"})
		return
	}

	token := extractToken(payload.To, payload.Subject)
	if token == "" {
		metrics.WarnWithContext(r.Context(), "Inbound email without action token", map[string]interface{}{
			"to":      payload.To,
			"subject": payload.Subject,
		})
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "no token"})
		return
	}

	req, err := h.service.GetByToken(r.Context(), token)
	if err != nil {
		metrics.ErrorWithContext(r.Context(), "Inbound email token lookup failed", err, nil)
		respondJSON(w, http.StatusOK, map[string]string{"status": "error", "reason": "lookup failed"})
		return
	}
	if req == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "unknown token"})
		return
	}

	ctx := metrics.WithActionRequestIDLogContext(r.Context(), req.ID)
	ctx = metrics.WithIntakeIDLogContext(ctx, req.IntakeID)
	ctx = metrics.WithTenantLogContext(ctx, req.Tenant)

	if req.Status == db.StatusApplied || req.Status == db.StatusLocked || req.Status == db.StatusExpired {
		metrics.InfoWithContext(ctx, "Inbound email for settled request ignored", map[string]interface{}{
			"status": req.Status,
		})
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "request settled"})
		return
	}

	replyText := stripQuotedReplies(payload.Text)
	classification := actionrequests.Classify(replyText, req.ProposedValue.V)

	recorded, err := h.service.RecordReply(ctx, req, db.ReplyChannelEmail, classification, map[string]interface{}{
		"from":    payload.From,
		"subject": payload.Subject,
		"text":    replyText,
	})
	if err != nil {
		metrics.ErrorWithContext(ctx, "Failed to record inbound email reply", err, nil)
		respondJSON(w, http.StatusOK, map[string]string{"status": "error", "reason": "record failed"})
		return
	}
	if !recorded {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "duplicate reply"})
		return
	}

	if err := h.tracker.RecordOutcome(ctx, req.Tenant, req.ChecklistKey, learning.OutcomeForIntent(string(classification.Intent))); err != nil {
		metrics.WarnWithContext(ctx, "Learning update failed", map[string]interface{}{"error": err.Error()})
	}

	outcome := h.routeReply(ctx, req, classification)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "processed",
		"intent":  string(classification.Intent),
		"outcome": outcome,
	})
}

/* routeReply decides what happens after a classified email reply */
func (h *Handlers) routeReply(ctx context.Context, req *db.ActionRequest, classification actionrequests.Classification) string {
	switch classification.Intent {
	case actionrequests.IntentApprove, actionrequests.IntentEditExact:
		result := h.service.Apply(ctx, req.ID)
		switch {
		case result.Success:
			if err := h.service.ConfirmAndLock(ctx, req.ID); err != nil {
				metrics.ErrorWithContext(ctx, "Lock after email reply failed", err, nil)
				return "applied_unlocked"
			}
			h.sendConfirmation(ctx, req)
			return "applied"

		case result.NeedsConfirmation:
			if err := h.service.Escalate(ctx, req, "Medium-risk change needs confirmation", map[string]interface{}{
				"intent":     string(classification.Intent),
				"confidence": classification.Confidence,
			}); err != nil {
				metrics.ErrorWithContext(ctx, "Escalation failed", err, nil)
			}
			return "needs_confirmation"

		case result.NeedsHuman:
			if err := h.service.Escalate(ctx, req, "Email reply could not auto-apply", map[string]interface{}{
				"intent":     string(classification.Intent),
				"confidence": classification.Confidence,
			}); err != nil {
				metrics.ErrorWithContext(ctx, "Escalation failed", err, nil)
			}
			return "escalated"

		default:
			return "apply_failed"
		}

	case actionrequests.IntentReject:
		if err := h.service.Escalate(ctx, req, "Customer rejected the proposal", map[string]interface{}{
			"intent": string(classification.Intent),
		}); err != nil {
			metrics.ErrorWithContext(ctx, "Escalation failed", err, nil)
		}
		return "escalated"

	default:
		/* EDIT_AMBIGUOUS and NEW_REQUEST need a human conversation */
		if err := h.service.Escalate(ctx, req, "Email reply needs human review", map[string]interface{}{
			"intent":     string(classification.Intent),
			"confidence": classification.Confidence,
			"rule":       classification.Rule,
		}); err != nil {
			metrics.ErrorWithContext(ctx, "Escalation failed", err, nil)
		}
		return "escalated"
	}
}
