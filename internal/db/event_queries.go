/*-------------------------------------------------------------------------
 *
 * event_queries.go
 *    Database queries for action request audit events
 *
 * The events table is append-only. This package deliberately contains no
 * UPDATE or DELETE statement for it; immutability is also enforced by the
 * storage grants.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/db/event_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

/* Audit event queries */
const (
	insertActionRequestEventQuery = `
		INSERT INTO launchbase.action_request_events
		(action_request_id, intake_id, event_type, actor_type, reason, meta)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING id, created_at`

	listActionRequestEventsQuery = `
		SELECT * FROM launchbase.action_request_events
		WHERE action_request_id = $1
		ORDER BY id ASC`

	listIntakeEventsQuery = `
		SELECT * FROM launchbase.action_request_events
		WHERE intake_id = $1
		ORDER BY id ASC`
)

/* InsertActionRequestEvent appends one immutable audit event */
func (q *Queries) InsertActionRequestEvent(ctx context.Context, event *ActionRequestEvent) error {
	err := q.DB.QueryRowxContext(ctx, insertActionRequestEventQuery,
		event.ActionRequestID, event.IntakeID, event.EventType, event.ActorType,
		event.Reason, event.Meta).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit event insert failed: %w", err)
	}
	return nil
}

/* ListActionRequestEvents lists events for one action request in append order */
func (q *Queries) ListActionRequestEvents(ctx context.Context, actionRequestID uuid.UUID) ([]ActionRequestEvent, error) {
	var events []ActionRequestEvent
	err := q.DB.SelectContext(ctx, &events, listActionRequestEventsQuery, actionRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}

/* ListIntakeEvents lists events across all action requests of an intake */
func (q *Queries) ListIntakeEvents(ctx context.Context, intakeID int64) ([]ActionRequestEvent, error) {
	var events []ActionRequestEvent
	err := q.DB.SelectContext(ctx, &events, listIntakeEventsQuery, intakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list intake audit events: %w", err)
	}
	return events, nil
}
