/*-------------------------------------------------------------------------
 *
 * confidence.go
 *    Confidence learning: approval and edit rates per checklist key
 *
 * Tracks reply outcomes per (tenant, checklist key) and recomputes a
 * recommended auto-apply threshold after every outcome. The
 * recommendation is advisory only: the apply engine's hard gate reads
 * the safety policy table, never this side table.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/learning/confidence.go
 *
 *-------------------------------------------------------------------------
 */

package learning

import (
	"context"
	"fmt"

	"github.com/launchbase/actionrequests/internal/db"
	"github.com/launchbase/actionrequests/internal/metrics"
)

/* Reply outcomes */
const (
	OutcomeApproved = "approved"
	OutcomeRejected = "rejected"
	OutcomeEdited   = "edited"
	OutcomeUnclear  = "unclear"
)

/* DefaultThreshold is the starting recommendation for new keys */
const DefaultThreshold = 0.9

/* Store is the persistence surface the tracker needs */
type Store interface {
	GetConfidenceLearning(ctx context.Context, tenant, checklistKey string) (*db.ConfidenceLearning, error)
	UpsertConfidenceLearning(ctx context.Context, record *db.ConfidenceLearning) error
}

/* Tracker records outcomes and serves recommendations */
type Tracker struct {
	store Store
}

/* NewTracker creates a new confidence tracker */
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

/* RecordOutcome updates the counters and recomputes the rates and the
 * recommended threshold for one (tenant, checklist key). */
func (t *Tracker) RecordOutcome(ctx context.Context, tenant, checklistKey, outcome string) error {
	record, err := t.store.GetConfidenceLearning(ctx, tenant, checklistKey)
	if err != nil {
		return fmt.Errorf("failed to load confidence learning record: %w", err)
	}
	if record == nil {
		record = &db.ConfidenceLearning{
			Tenant:               tenant,
			ChecklistKey:         checklistKey,
			RecommendedThreshold: DefaultThreshold,
		}
	}

	record.TotalSent++
	switch outcome {
	case OutcomeApproved:
		record.TotalApproved++
	case OutcomeRejected:
		record.TotalRejected++
	case OutcomeEdited:
		record.TotalEdited++
	case OutcomeUnclear:
		record.TotalUnclear++
	default:
		return fmt.Errorf("unknown outcome %q", outcome)
	}

	record.ApprovalRate = float64(record.TotalApproved) / float64(record.TotalSent)
	record.EditRate = float64(record.TotalEdited) / float64(record.TotalSent)
	record.RecommendedThreshold = recommendThreshold(record.ApprovalRate)

	if err := t.store.UpsertConfidenceLearning(ctx, record); err != nil {
		return fmt.Errorf("failed to persist confidence learning record: %w", err)
	}

	metrics.DebugWithContext(ctx, "Confidence learning updated", map[string]interface{}{
		"checklist_key":         checklistKey,
		"outcome":               outcome,
		"approval_rate":         record.ApprovalRate,
		"recommended_threshold": record.RecommendedThreshold,
	})
	return nil
}

/* recommendThreshold maps the approval rate to a recommendation:
 * above 90% approval the key can be more aggressive, below 70% it
 * should be more conservative. */
func recommendThreshold(approvalRate float64) float64 {
	switch {
	case approvalRate > 0.9:
		return 0.85
	case approvalRate < 0.7:
		return 0.95
	default:
		return DefaultThreshold
	}
}

/* RecommendedThreshold returns the advisory threshold for a key,
 * falling back to the default when no data exists yet. */
func (t *Tracker) RecommendedThreshold(ctx context.Context, tenant, checklistKey string) (float64, error) {
	record, err := t.store.GetConfidenceLearning(ctx, tenant, checklistKey)
	if err != nil {
		return DefaultThreshold, fmt.Errorf("failed to load confidence learning record: %w", err)
	}
	if record == nil {
		return DefaultThreshold, nil
	}
	return record.RecommendedThreshold, nil
}

/* Stats returns the learning record for a key, or nil when no outcome
 * has been recorded yet. */
func (t *Tracker) Stats(ctx context.Context, tenant, checklistKey string) (*db.ConfidenceLearning, error) {
	return t.store.GetConfidenceLearning(ctx, tenant, checklistKey)
}

/* OutcomeForIntent maps a classified intent to a learning outcome */
func OutcomeForIntent(intent string) string {
	switch intent {
	case "APPROVE":
		return OutcomeApproved
	case "REJECT":
		return OutcomeRejected
	case "EDIT_EXACT":
		return OutcomeEdited
	default:
		return OutcomeUnclear
	}
}
