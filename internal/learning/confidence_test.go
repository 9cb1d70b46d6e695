/*-------------------------------------------------------------------------
 *
 * confidence_test.go
 *    Tests for confidence learning
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/learning/confidence_test.go
 *
 *-------------------------------------------------------------------------
 */

package learning

import (
	"context"
	"testing"

	"github.com/launchbase/actionrequests/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLearningStore struct {
	records map[string]*db.ConfidenceLearning
}

func newMemLearningStore() *memLearningStore {
	return &memLearningStore{records: make(map[string]*db.ConfidenceLearning)}
}

func (m *memLearningStore) key(tenant, checklistKey string) string {
	return tenant + "/" + checklistKey
}

func (m *memLearningStore) GetConfidenceLearning(ctx context.Context, tenant, checklistKey string) (*db.ConfidenceLearning, error) {
	record, ok := m.records[m.key(tenant, checklistKey)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (m *memLearningStore) UpsertConfidenceLearning(ctx context.Context, record *db.ConfidenceLearning) error {
	copied := *record
	m.records[m.key(record.Tenant, record.ChecklistKey)] = &copied
	return nil
}

func TestRecordOutcomeCounters(t *testing.T) {
	store := newMemLearningStore()
	tracker := NewTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.RecordOutcome(ctx, "acme", "homepage.headline", OutcomeApproved))
	require.NoError(t, tracker.RecordOutcome(ctx, "acme", "homepage.headline", OutcomeEdited))
	require.NoError(t, tracker.RecordOutcome(ctx, "acme", "homepage.headline", OutcomeApproved))
	require.NoError(t, tracker.RecordOutcome(ctx, "acme", "homepage.headline", OutcomeUnclear))

	record, err := tracker.Stats(ctx, "acme", "homepage.headline")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, 4, record.TotalSent)
	assert.Equal(t, 2, record.TotalApproved)
	assert.Equal(t, 1, record.TotalEdited)
	assert.Equal(t, 1, record.TotalUnclear)
	assert.InDelta(t, 0.5, record.ApprovalRate, 1e-9)
	assert.InDelta(t, 0.25, record.EditRate, 1e-9)
}

func TestRecordOutcomeUnknown(t *testing.T) {
	tracker := NewTracker(newMemLearningStore())
	assert.Error(t, tracker.RecordOutcome(context.Background(), "acme", "homepage.headline", "shrug"))
}

func TestRecommendedThresholdBands(t *testing.T) {
	store := newMemLearningStore()
	tracker := NewTracker(store)
	ctx := context.Background()

	/* High approval: recommendation relaxes */
	for i := 0; i < 19; i++ {
		require.NoError(t, tracker.RecordOutcome(ctx, "acme", "cta.primary", OutcomeApproved))
	}
	require.NoError(t, tracker.RecordOutcome(ctx, "acme", "cta.primary", OutcomeEdited))
	threshold, err := tracker.RecommendedThreshold(ctx, "acme", "cta.primary")
	require.NoError(t, err)
	assert.Equal(t, 0.85, threshold)

	/* Low approval: recommendation tightens */
	for i := 0; i < 6; i++ {
		require.NoError(t, tracker.RecordOutcome(ctx, "acme", "gmb.category", OutcomeRejected))
	}
	require.NoError(t, tracker.RecordOutcome(ctx, "acme", "gmb.category", OutcomeApproved))
	threshold, err = tracker.RecommendedThreshold(ctx, "acme", "gmb.category")
	require.NoError(t, err)
	assert.Equal(t, 0.95, threshold)
}

func TestRecommendedThresholdDefaultForNewKey(t *testing.T) {
	tracker := NewTracker(newMemLearningStore())
	threshold, err := tracker.RecommendedThreshold(context.Background(), "acme", "never.asked")
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, threshold)
}

func TestOutcomeForIntent(t *testing.T) {
	assert.Equal(t, OutcomeApproved, OutcomeForIntent("APPROVE"))
	assert.Equal(t, OutcomeRejected, OutcomeForIntent("REJECT"))
	assert.Equal(t, OutcomeEdited, OutcomeForIntent("EDIT_EXACT"))
	assert.Equal(t, OutcomeUnclear, OutcomeForIntent("EDIT_AMBIGUOUS"))
	assert.Equal(t, OutcomeUnclear, OutcomeForIntent("NEW_REQUEST"))
}
