/*-------------------------------------------------------------------------
 *
 * action_request_queries.go
 *    Database queries for action requests
 *
 * Status transitions are expressed as conditional updates so duplicate
 * triggers (webhook retries, double clicks, overlapping sequencer ticks)
 * cannot double-apply: a transition that finds the row already moved on
 * affects zero rows and reports false.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/db/action_request_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

/* Action request queries */
const (
	createActionRequestQuery = `
		INSERT INTO launchbase.action_requests
		(id, tenant, intake_id, checklist_key, proposed_value, status, token,
		 message_type, proposed_preview_token, proposed_preview_expires_at, expires_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	getActionRequestQuery = `SELECT * FROM launchbase.action_requests WHERE id = $1`

	getActionRequestByTokenQuery = `SELECT * FROM launchbase.action_requests WHERE token = $1`

	getActionRequestByPreviewTokenQuery = `
		SELECT * FROM launchbase.action_requests WHERE proposed_preview_token = $1`

	listActionRequestsForIntakeQuery = `
		SELECT * FROM launchbase.action_requests
		WHERE intake_id = $1
		ORDER BY created_at ASC`

	isChecklistKeyLockedQuery = `
		SELECT EXISTS (
			SELECT 1 FROM launchbase.action_requests
			WHERE tenant = $1 AND intake_id = $2 AND checklist_key = $3 AND status = 'locked'
		)`

	markSentQuery = `
		UPDATE launchbase.action_requests
		SET status = 'sent', sent_at = NOW(), last_sent_at = NOW(), send_count = send_count + 1
		WHERE id = $1 AND status = 'pending'`

	markRespondedQuery = `
		UPDATE launchbase.action_requests
		SET status = 'responded', responded_at = NOW(), reply_channel = $2,
			confidence = $3, raw_inbound = $4::jsonb,
			proposed_value = COALESCE($5::jsonb, proposed_value)
		WHERE id = $1 AND status IN ('pending', 'sent')`

	markAdminRespondedQuery = `
		UPDATE launchbase.action_requests
		SET status = 'responded', responded_at = NOW(), reply_channel = $2,
			confidence = $3, raw_inbound = $4::jsonb
		WHERE id = $1 AND status IN ('pending', 'sent', 'responded', 'needs_human')`

	markAppliedQuery = `
		UPDATE launchbase.action_requests
		SET status = 'applied', applied_at = NOW()
		WHERE id = $1 AND status NOT IN ('applied', 'locked', 'expired')`

	markLockedQuery = `
		UPDATE launchbase.action_requests
		SET status = 'locked'
		WHERE id = $1 AND status = 'applied'`

	markNeedsHumanQuery = `
		UPDATE launchbase.action_requests
		SET status = 'needs_human'
		WHERE id = $1 AND status NOT IN ('applied', 'locked', 'expired')`

	expireOverdueQuery = `
		UPDATE launchbase.action_requests
		SET status = 'expired'
		WHERE status = 'sent' AND expires_at IS NOT NULL AND expires_at < NOW()`
)

/* CreateActionRequest inserts a new action request row */
func (q *Queries) CreateActionRequest(ctx context.Context, req *ActionRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.Status = StatusPending

	err := q.DB.GetContext(ctx, &req.CreatedAt, createActionRequestQuery,
		req.ID, req.Tenant, req.IntakeID, req.ChecklistKey, req.ProposedValue,
		req.Status, req.Token, req.MessageType,
		req.ProposedPreviewToken, req.ProposedPreviewExpiresAt, req.ExpiresAt)
	if err != nil {
		return fmt.Errorf("action request creation failed: %w", err)
	}
	return nil
}

/* GetActionRequest gets an action request by ID */
func (q *Queries) GetActionRequest(ctx context.Context, id uuid.UUID) (*ActionRequest, error) {
	var req ActionRequest
	err := q.DB.GetContext(ctx, &req, getActionRequestQuery, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get action request: %w", err)
	}
	return &req, nil
}

/* GetActionRequestByToken gets an action request by its approval token */
func (q *Queries) GetActionRequestByToken(ctx context.Context, token string) (*ActionRequest, error) {
	var req ActionRequest
	err := q.DB.GetContext(ctx, &req, getActionRequestByTokenQuery, token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get action request by token: %w", err)
	}
	return &req, nil
}

/* GetActionRequestByPreviewToken gets an action request by its preview token */
func (q *Queries) GetActionRequestByPreviewToken(ctx context.Context, token string) (*ActionRequest, error) {
	var req ActionRequest
	err := q.DB.GetContext(ctx, &req, getActionRequestByPreviewTokenQuery, token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get action request by preview token: %w", err)
	}
	return &req, nil
}

/* ListActionRequestsForIntake lists all action requests for an intake, oldest first */
func (q *Queries) ListActionRequestsForIntake(ctx context.Context, intakeID int64) ([]ActionRequest, error) {
	var requests []ActionRequest
	err := q.DB.SelectContext(ctx, &requests, listActionRequestsForIntakeQuery, intakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list action requests: %w", err)
	}
	return requests, nil
}

/* IsChecklistKeyLocked reports whether a locked request exists for the triple */
func (q *Queries) IsChecklistKeyLocked(ctx context.Context, tenant string, intakeID int64, checklistKey string) (bool, error) {
	var locked bool
	err := q.DB.GetContext(ctx, &locked, isChecklistKeyLockedQuery, tenant, intakeID, checklistKey)
	if err != nil {
		return false, fmt.Errorf("failed to check checklist key lock: %w", err)
	}
	return locked, nil
}

/* MarkSent transitions pending -> sent after confirmed delivery */
func (q *Queries) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	return q.transition(ctx, markSentQuery, id)
}

/* RespondedParams carries the classified reply written on the responded transition */
type RespondedParams struct {
	ReplyChannel string
	Confidence   float64
	RawInbound   JSONBMap
	/* NewProposedValue replaces the proposed value for exact edits; nil keeps it */
	NewProposedValue *JSONBValue
}

/* MarkResponded transitions pending/sent -> responded with the classified reply */
func (q *Queries) MarkResponded(ctx context.Context, id uuid.UUID, params RespondedParams) (bool, error) {
	res, err := q.DB.ExecContext(ctx, markRespondedQuery,
		id, params.ReplyChannel, params.Confidence, params.RawInbound, params.NewProposedValue)
	if err != nil {
		return false, fmt.Errorf("responded transition failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("responded transition failed: %w", err)
	}
	return n > 0, nil
}

/* MarkAdminResponded stamps admin-grade confidence on a request that has
 * not yet applied. Unlike MarkResponded it may override an escalated or
 * already-responded request; batch approval is the human resolution path
 * for those. */
func (q *Queries) MarkAdminResponded(ctx context.Context, id uuid.UUID, params RespondedParams) (bool, error) {
	res, err := q.DB.ExecContext(ctx, markAdminRespondedQuery,
		id, params.ReplyChannel, params.Confidence, params.RawInbound)
	if err != nil {
		return false, fmt.Errorf("admin responded transition failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("admin responded transition failed: %w", err)
	}
	return n > 0, nil
}

/* MarkApplied claims the applied transition; false means another caller won */
func (q *Queries) MarkApplied(ctx context.Context, id uuid.UUID) (bool, error) {
	return q.transition(ctx, markAppliedQuery, id)
}

/* MarkLocked transitions applied -> locked */
func (q *Queries) MarkLocked(ctx context.Context, id uuid.UUID) (bool, error) {
	return q.transition(ctx, markLockedQuery, id)
}

/* MarkNeedsHuman parks a request for manual resolution */
func (q *Queries) MarkNeedsHuman(ctx context.Context, id uuid.UUID) (bool, error) {
	return q.transition(ctx, markNeedsHumanQuery, id)
}

/* ExpireOverdue marks sent requests past their expiry as expired */
func (q *Queries) ExpireOverdue(ctx context.Context) (int64, error) {
	res, err := q.DB.ExecContext(ctx, expireOverdueQuery)
	if err != nil {
		return 0, fmt.Errorf("expiry sweep failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expiry sweep failed: %w", err)
	}
	return n, nil
}

func (q *Queries) transition(ctx context.Context, query string, id uuid.UUID) (bool, error) {
	res, err := q.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("status transition failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("status transition failed: %w", err)
	}
	return n > 0, nil
}
