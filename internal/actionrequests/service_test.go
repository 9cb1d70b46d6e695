/*-------------------------------------------------------------------------
 *
 * service_test.go
 *    Tests for the action request lifecycle service
 *
 * Uses an in-memory store fake so the state machine semantics are
 * exercised without PostgreSQL. The fake mirrors the conditional-update
 * transition rules of the real queries.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/actionrequests/service_test.go
 *
 *-------------------------------------------------------------------------
 */

package actionrequests

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/launchbase/actionrequests/internal/audit"
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* memStore is an in-memory Store with the same transition rules as the
 * SQL queries */
type memStore struct {
	requests map[uuid.UUID]*db.ActionRequest
	intakes  map[int64]*db.Intake
	updates  []map[string]interface{}
	events   []db.ActionRequestEvent

	failUpdateIntake bool
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[uuid.UUID]*db.ActionRequest),
		intakes:  make(map[int64]*db.Intake),
	}
}

func (m *memStore) CreateActionRequest(ctx context.Context, req *db.ActionRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.Status = db.StatusPending
	req.CreatedAt = time.Now()
	copied := *req
	m.requests[req.ID] = &copied
	return nil
}

func (m *memStore) GetActionRequest(ctx context.Context, id uuid.UUID) (*db.ActionRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (m *memStore) GetActionRequestByToken(ctx context.Context, token string) (*db.ActionRequest, error) {
	for _, req := range m.requests {
		if req.Token == token {
			copied := *req
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetActionRequestByPreviewToken(ctx context.Context, token string) (*db.ActionRequest, error) {
	for _, req := range m.requests {
		if req.ProposedPreviewToken != nil && *req.ProposedPreviewToken == token {
			copied := *req
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStore) IsChecklistKeyLocked(ctx context.Context, tenant string, intakeID int64, checklistKey string) (bool, error) {
	for _, req := range m.requests {
		if req.Tenant == tenant && req.IntakeID == intakeID &&
			req.ChecklistKey == checklistKey && req.Status == db.StatusLocked {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MarkResponded(ctx context.Context, id uuid.UUID, params db.RespondedParams) (bool, error) {
	req, ok := m.requests[id]
	if !ok || (req.Status != db.StatusPending && req.Status != db.StatusSent) {
		return false, nil
	}
	req.Status = db.StatusResponded
	now := time.Now()
	req.RespondedAt = &now
	channel := params.ReplyChannel
	req.ReplyChannel = &channel
	confidence := params.Confidence
	req.Confidence = &confidence
	req.RawInbound = params.RawInbound
	if params.NewProposedValue != nil {
		req.ProposedValue = *params.NewProposedValue
	}
	return true, nil
}

func (m *memStore) MarkAdminResponded(ctx context.Context, id uuid.UUID, params db.RespondedParams) (bool, error) {
	req, ok := m.requests[id]
	if !ok || (req.Status != db.StatusPending && req.Status != db.StatusSent &&
		req.Status != db.StatusResponded && req.Status != db.StatusNeedsHuman) {
		return false, nil
	}
	req.Status = db.StatusResponded
	now := time.Now()
	req.RespondedAt = &now
	channel := params.ReplyChannel
	req.ReplyChannel = &channel
	confidence := params.Confidence
	req.Confidence = &confidence
	req.RawInbound = params.RawInbound
	return true, nil
}

func (m *memStore) MarkApplied(ctx context.Context, id uuid.UUID) (bool, error) {
	req, ok := m.requests[id]
	if !ok || req.Status == db.StatusApplied || req.Status == db.StatusLocked || req.Status == db.StatusExpired {
		return false, nil
	}
	req.Status = db.StatusApplied
	now := time.Now()
	req.AppliedAt = &now
	return true, nil
}

func (m *memStore) MarkLocked(ctx context.Context, id uuid.UUID) (bool, error) {
	req, ok := m.requests[id]
	if !ok || req.Status != db.StatusApplied {
		return false, nil
	}
	req.Status = db.StatusLocked
	return true, nil
}

func (m *memStore) MarkNeedsHuman(ctx context.Context, id uuid.UUID) (bool, error) {
	req, ok := m.requests[id]
	if !ok || req.Status == db.StatusApplied || req.Status == db.StatusLocked || req.Status == db.StatusExpired {
		return false, nil
	}
	req.Status = db.StatusNeedsHuman
	return true, nil
}

func (m *memStore) GetIntake(ctx context.Context, id int64) (*db.Intake, error) {
	intake, ok := m.intakes[id]
	if !ok {
		return nil, nil
	}
	copied := *intake
	return &copied, nil
}

func (m *memStore) UpdateIntakeFields(ctx context.Context, id int64, updates map[string]interface{}) error {
	if m.failUpdateIntake {
		return assert.AnError
	}
	m.updates = append(m.updates, updates)
	if intake, ok := m.intakes[id]; ok {
		if v, exists := updates["business_name"]; exists {
			intake.BusinessName = v.(string)
		}
		if v, exists := updates["phone"]; exists {
			s := v.(string)
			intake.Phone = &s
		}
	}
	return nil
}

func (m *memStore) InsertActionRequestEvent(ctx context.Context, event *db.ActionRequestEvent) error {
	event.ID = int64(len(m.events) + 1)
	event.CreatedAt = time.Now()
	m.events = append(m.events, *event)
	return nil
}

func (m *memStore) eventTypes() []string {
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.EventType)
	}
	return types
}

func newTestService(store *memStore) *Service {
	return NewService(store, audit.NewLogger(store))
}

func respondedRequest(store *memStore, checklistKey string, confidence float64) *db.ActionRequest {
	req := &db.ActionRequest{
		ID:            uuid.New(),
		Tenant:        "acme",
		IntakeID:      1,
		ChecklistKey:  checklistKey,
		ProposedValue: db.NewJSONBValue("Acme Rooter Experts"),
		Status:        db.StatusResponded,
		Token:         NewActionToken(),
		Confidence:    &confidence,
	}
	store.requests[req.ID] = req
	return req
}

func testIntake() *db.Intake {
	return &db.Intake{
		ID:           1,
		Tenant:       "acme",
		Email:        "owner@acme.test",
		ContactName:  "Jo Smith",
		BusinessName: "Acme Rooter",
		Status:       "paid",
		CreatedAt:    time.Now().Add(-24 * time.Hour),
	}
}

func TestCreateActionRequest(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	req, err := svc.Create(context.Background(), CreateParams{
		Tenant:        "acme",
		IntakeID:      1,
		ChecklistKey:  "homepage.headline",
		ProposedValue: "Acme Rooter - Trusted Plumber",
		MessageType:   "DAY0_HEADLINE",
	})
	require.NoError(t, err)

	assert.Equal(t, db.StatusPending, req.Status)
	assert.True(t, strings.HasPrefix(req.Token, "action_"))
	require.NotNil(t, req.ProposedPreviewToken)
	assert.True(t, strings.HasPrefix(*req.ProposedPreviewToken, "preview_"))
	require.NotNil(t, req.ExpiresAt)
	require.NotNil(t, req.ProposedPreviewExpiresAt)
	assert.True(t, req.ProposedPreviewExpiresAt.Before(*req.ExpiresAt))
}

func TestApplyHappyPath(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)
	req := respondedRequest(store, "homepage.headline", 0.95)

	result := svc.Apply(context.Background(), req.ID)

	assert.True(t, result.Success)
	assert.Equal(t, db.StatusApplied, store.requests[req.ID].Status)
	assert.Equal(t, "Acme Rooter Experts", store.intakes[1].BusinessName)
	assert.Contains(t, store.eventTypes(), audit.EventApplied)

	/* The audit event captures the previous value for reversibility */
	var applied db.ActionRequestEvent
	for _, e := range store.events {
		if e.EventType == audit.EventApplied {
			applied = e
		}
	}
	assert.Equal(t, "Acme Rooter", applied.Meta["previousValue"])
}

func TestApplyIdempotent(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)
	req := respondedRequest(store, "homepage.headline", 0.95)

	first := svc.Apply(context.Background(), req.ID)
	second := svc.Apply(context.Background(), req.ID)

	assert.True(t, first.Success)
	assert.False(t, second.Success)
	assert.Equal(t, "Already applied", second.Error)
	/* The intake was mutated exactly once */
	assert.Len(t, store.updates, 1)
}

func TestApplyNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	result := svc.Apply(context.Background(), uuid.New())
	assert.False(t, result.Success)
	assert.Equal(t, "Action request not found", result.Error)
}

func TestApplyLockExclusivity(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)

	winner := respondedRequest(store, "homepage.headline", 0.95)
	winner.Status = db.StatusLocked

	loser := respondedRequest(store, "homepage.headline", 0.95)
	result := svc.Apply(context.Background(), loser.ID)

	assert.False(t, result.Success)
	assert.True(t, result.NeedsHuman)
	assert.Equal(t, "Checklist key is locked", result.Error)
	assert.Equal(t, "Acme Rooter", store.intakes[1].BusinessName)
}

func TestApplyRestrictedAlwaysEscalates(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)
	req := respondedRequest(store, "billing.plan", 1.0)

	result := svc.Apply(context.Background(), req.ID)

	assert.False(t, result.Success)
	assert.True(t, result.NeedsHuman)
	assert.Empty(t, result.Error)
}

func TestApplyMediumRiskConfirmationWindow(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)

	/* In the 0.70..0.85 window: two-step confirmation */
	inWindow := respondedRequest(store, "gmb.category", 0.75)
	result := svc.Apply(context.Background(), inWindow.ID)
	assert.False(t, result.Success)
	assert.True(t, result.NeedsConfirmation)
	assert.False(t, result.NeedsHuman)

	/* Below the floor: human review */
	belowFloor := respondedRequest(store, "gmb.category", 0.55)
	result = svc.Apply(context.Background(), belowFloor.ID)
	assert.False(t, result.Success)
	assert.False(t, result.NeedsConfirmation)
	assert.True(t, result.NeedsHuman)
}

func TestApplyBelowThresholdContent(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)
	req := respondedRequest(store, "homepage.headline", 0.60)

	result := svc.Apply(context.Background(), req.ID)

	assert.False(t, result.Success)
	assert.True(t, result.NeedsHuman)
	/* Content keys have no confirmation window */
	assert.False(t, result.NeedsConfirmation)
}

func TestApplyMissingConfidence(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)

	req := respondedRequest(store, "homepage.headline", 0)
	req.Confidence = nil

	result := svc.Apply(context.Background(), req.ID)
	assert.False(t, result.Success)
	assert.True(t, result.NeedsHuman)
}

func TestApplyExpired(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)

	req := respondedRequest(store, "homepage.headline", 0.95)
	req.Status = db.StatusSent
	past := time.Now().Add(-time.Hour)
	req.ExpiresAt = &past

	result := svc.Apply(context.Background(), req.ID)
	assert.False(t, result.Success)
	assert.Equal(t, "Expired", result.Error)
}

func TestApplyIntakeMutationFailure(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	store.failUpdateIntake = true
	svc := newTestService(store)
	req := respondedRequest(store, "homepage.headline", 0.95)

	result := svc.Apply(context.Background(), req.ID)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestConfirmAndLock(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)
	req := respondedRequest(store, "homepage.headline", 0.95)

	require.True(t, svc.Apply(context.Background(), req.ID).Success)

	require.NoError(t, svc.ConfirmAndLock(context.Background(), req.ID))
	assert.Equal(t, db.StatusLocked, store.requests[req.ID].Status)
	assert.Contains(t, store.eventTypes(), audit.EventLocked)

	/* Idempotent on an already locked request */
	require.NoError(t, svc.ConfirmAndLock(context.Background(), req.ID))
}

func TestConfirmAndLockRequiresApplied(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	req := respondedRequest(store, "homepage.headline", 0.95)

	err := svc.ConfirmAndLock(context.Background(), req.ID)
	assert.Error(t, err)
	assert.Equal(t, db.StatusResponded, store.requests[req.ID].Status)
}

func TestRecordReplyExactEditReplacesProposedValue(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	req := respondedRequest(store, "homepage.headline", 0.95)
	store.requests[req.ID].Status = db.StatusSent

	classification := Classify("Acme Drain Masters Inc", req.ProposedValue.V)
	require.Equal(t, IntentEditExact, classification.Intent)

	recorded, err := svc.RecordReply(context.Background(), req, db.ReplyChannelEmail, classification, map[string]interface{}{"from": "owner@acme.test"})
	require.NoError(t, err)
	assert.True(t, recorded)

	stored := store.requests[req.ID]
	assert.Equal(t, db.StatusResponded, stored.Status)
	assert.Equal(t, "Acme Drain Masters Inc", stored.ProposedValue.V)
	assert.Contains(t, store.eventTypes(), audit.EventCustomerEdited)
}

func TestRecordReplyDuplicateIgnored(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	req := respondedRequest(store, "homepage.headline", 0.95)
	store.requests[req.ID].Status = db.StatusApplied

	classification := Classification{Intent: IntentApprove, Confidence: 0.95, Rule: 1}
	recorded, err := svc.RecordReply(context.Background(), req, db.ReplyChannelLink, classification, nil)
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.NotContains(t, store.eventTypes(), audit.EventCustomerApproved)
}

func TestEscalate(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	req := respondedRequest(store, "homepage.headline", 0.95)

	err := svc.Escalate(context.Background(), req, "Customer rejected the proposal", map[string]interface{}{"intent": "REJECT"})
	require.NoError(t, err)
	assert.Equal(t, db.StatusNeedsHuman, store.requests[req.ID].Status)
	assert.Contains(t, store.eventTypes(), audit.EventEscalated)
}

func TestBatchApprove(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)

	pending := respondedRequest(store, "homepage.headline", 0.95)
	pending.Status = db.StatusPending
	pending.Confidence = nil

	locked := respondedRequest(store, "cta.primary", 0.95)
	locked.Status = db.StatusLocked

	missing := uuid.New()

	result := svc.BatchApprove(context.Background(), []uuid.UUID{pending.ID, locked.ID, missing}, "admin sweep")

	assert.Equal(t, 3, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.Success)
	assert.Equal(t, 2, result.Summary.Failed)
	require.Len(t, result.Results, 3)

	assert.True(t, result.Results[0].Success)
	assert.Equal(t, db.StatusLocked, store.requests[pending.ID].Status)

	assert.False(t, result.Results[1].Success)
	assert.Equal(t, "Already locked", result.Results[1].Error)

	assert.False(t, result.Results[2].Success)
	assert.Equal(t, "Action request not found", result.Results[2].Error)

	assert.Contains(t, store.eventTypes(), audit.EventAdminApply)
}

func TestBatchApproveResolvesEscalatedRequest(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)

	/* A medium-risk reply at 0.75 was handed to a human; the admin
	 * approval overrides the stored confidence and closes it out. */
	req := respondedRequest(store, "gmb.category", 0.75)
	req.Status = db.StatusNeedsHuman

	result := svc.BatchApprove(context.Background(), []uuid.UUID{req.ID}, "confirmed with customer")

	assert.Equal(t, 1, result.Summary.Success)
	assert.Equal(t, db.StatusLocked, store.requests[req.ID].Status)
	require.NotNil(t, store.requests[req.ID].Confidence)
	assert.InDelta(t, 0.95, *store.requests[req.ID].Confidence, 1e-9)
}

func TestBatchApproveAppliedRequestOnlyLocks(t *testing.T) {
	store := newMemStore()
	store.intakes[1] = testIntake()
	svc := newTestService(store)

	req := respondedRequest(store, "homepage.headline", 0.95)
	require.True(t, svc.Apply(context.Background(), req.ID).Success)
	updatesBefore := len(store.updates)

	result := svc.BatchApprove(context.Background(), []uuid.UUID{req.ID}, "cleanup")
	assert.Equal(t, 1, result.Summary.Success)
	assert.Equal(t, db.StatusLocked, store.requests[req.ID].Status)
	/* No second intake mutation */
	assert.Len(t, store.updates, updatesBefore)
}
