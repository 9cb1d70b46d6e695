/*-------------------------------------------------------------------------
 *
 * log.go
 *    Append-only audit trail for action requests
 *
 * Every lifecycle transition writes exactly one immutable event. Writes
 * are best-effort: a failed audit write must never break the transition
 * that triggered it, so failures are logged and counted, not propagated.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/audit/log.go
 *
 *-------------------------------------------------------------------------
 */

package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/launchbase/actionrequests/internal/metrics"
)

/* Audit event types. Closed set; extend by adding new members only. */
const (
	EventSent                        = "SENT"
	EventSendFailed                  = "SEND_FAILED"
	EventCustomerApproved            = "CUSTOMER_APPROVED"
	EventCustomerEdited              = "CUSTOMER_EDITED"
	EventCustomerUnclear             = "CUSTOMER_UNCLEAR"
	EventApplied                     = "APPLIED"
	EventLocked                      = "LOCKED"
	EventEscalated                   = "ESCALATED"
	EventAdminApply                  = "ADMIN_APPLY"
	EventPreviewViewed               = "PREVIEW_VIEWED"
	EventProposedPreviewRenderFailed = "PROPOSED_PREVIEW_RENDER_FAILED"
)

/* Actor types */
const (
	ActorSystem   = "system"
	ActorCustomer = "customer"
	ActorAdmin    = "admin"
)

/* EventStore is the persistence surface the audit log needs */
type EventStore interface {
	InsertActionRequestEvent(ctx context.Context, event *db.ActionRequestEvent) error
}

/* Entry is one audit event to append */
type Entry struct {
	ActionRequestID uuid.UUID
	IntakeID        int64
	EventType       string
	ActorType       string
	Reason          string
	/* Meta must stay safe for operators: classification results and
	 * applied/previous values only, never prompt or secret content. */
	Meta map[string]interface{}
}

/* Logger appends audit events */
type Logger struct {
	store EventStore
}

/* NewLogger creates a new audit logger */
func NewLogger(store EventStore) *Logger {
	return &Logger{store: store}
}

/* Log appends one event. Best-effort: errors are swallowed after logging. */
func (l *Logger) Log(ctx context.Context, entry Entry) {
	event := &db.ActionRequestEvent{
		ActionRequestID: entry.ActionRequestID,
		IntakeID:        entry.IntakeID,
		EventType:       entry.EventType,
		ActorType:       entry.ActorType,
		Meta:            db.FromMap(entry.Meta),
	}
	if entry.Reason != "" {
		reason := entry.Reason
		event.Reason = &reason
	}

	if err := l.store.InsertActionRequestEvent(ctx, event); err != nil {
		metrics.RecordAuditEventFailure()
		metrics.WarnWithContext(ctx, "Audit event write failed", map[string]interface{}{
			"event_type":        entry.EventType,
			"action_request_id": entry.ActionRequestID.String(),
			"error":             err.Error(),
		})
		return
	}

	metrics.RecordAuditEvent(entry.EventType)
}
