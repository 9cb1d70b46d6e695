/*-------------------------------------------------------------------------
 *
 * learning_queries.go
 *    Database queries for confidence learning records
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/db/learning_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"fmt"
)

/* Confidence learning queries */
const (
	getConfidenceLearningQuery = `
		SELECT * FROM launchbase.confidence_learning
		WHERE tenant = $1 AND checklist_key = $2`

	upsertConfidenceLearningQuery = `
		INSERT INTO launchbase.confidence_learning
		(tenant, checklist_key, total_sent, total_approved, total_rejected,
		 total_edited, total_unclear, approval_rate, edit_rate, recommended_threshold, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (tenant, checklist_key) DO UPDATE SET
			total_sent = EXCLUDED.total_sent,
			total_approved = EXCLUDED.total_approved,
			total_rejected = EXCLUDED.total_rejected,
			total_edited = EXCLUDED.total_edited,
			total_unclear = EXCLUDED.total_unclear,
			approval_rate = EXCLUDED.approval_rate,
			edit_rate = EXCLUDED.edit_rate,
			recommended_threshold = EXCLUDED.recommended_threshold,
			updated_at = NOW()
		RETURNING id, updated_at`
)

/* GetConfidenceLearning gets the learning record for one (tenant, checklist key) */
func (q *Queries) GetConfidenceLearning(ctx context.Context, tenant, checklistKey string) (*ConfidenceLearning, error) {
	var record ConfidenceLearning
	err := q.DB.GetContext(ctx, &record, getConfidenceLearningQuery, tenant, checklistKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get confidence learning record: %w", err)
	}
	return &record, nil
}

/* UpsertConfidenceLearning writes the recomputed counters and threshold */
func (q *Queries) UpsertConfidenceLearning(ctx context.Context, record *ConfidenceLearning) error {
	err := q.DB.QueryRowxContext(ctx, upsertConfidenceLearningQuery,
		record.Tenant, record.ChecklistKey, record.TotalSent, record.TotalApproved,
		record.TotalRejected, record.TotalEdited, record.TotalUnclear,
		record.ApprovalRate, record.EditRate, record.RecommendedThreshold).
		Scan(&record.ID, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("confidence learning upsert failed: %w", err)
	}
	return nil
}
