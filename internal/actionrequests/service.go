/*-------------------------------------------------------------------------
 *
 * service.go
 *    Action request lifecycle service
 *
 * Implements the Ask -> Understand -> Apply -> Confirm loop: creation,
 * reply recording, the apply engine with its safety preconditions, the
 * explicit confirm-and-lock step, batch approval, and escalation.
 *
 * Safety rules:
 *   1. Never apply if confidence is below the policy threshold
 *   2. Never apply if the checklist key is already locked
 *   3. Never apply restricted categories
 *   4. Store the previous value for reversibility
 *
 * Expected conditions ("already applied", "needs confirmation", "needs
 * human") are structured return values, never errors.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/actionrequests/service.go
 *
 *-------------------------------------------------------------------------
 */

package actionrequests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/launchbase/actionrequests/internal/audit"
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/launchbase/actionrequests/internal/metrics"
)

/* Store is the persistence surface the lifecycle service needs */
type Store interface {
	CreateActionRequest(ctx context.Context, req *db.ActionRequest) error
	GetActionRequest(ctx context.Context, id uuid.UUID) (*db.ActionRequest, error)
	GetActionRequestByToken(ctx context.Context, token string) (*db.ActionRequest, error)
	GetActionRequestByPreviewToken(ctx context.Context, token string) (*db.ActionRequest, error)
	IsChecklistKeyLocked(ctx context.Context, tenant string, intakeID int64, checklistKey string) (bool, error)
	MarkResponded(ctx context.Context, id uuid.UUID, params db.RespondedParams) (bool, error)
	MarkAdminResponded(ctx context.Context, id uuid.UUID, params db.RespondedParams) (bool, error)
	MarkApplied(ctx context.Context, id uuid.UUID) (bool, error)
	MarkLocked(ctx context.Context, id uuid.UUID) (bool, error)
	MarkNeedsHuman(ctx context.Context, id uuid.UUID) (bool, error)
	GetIntake(ctx context.Context, id int64) (*db.Intake, error)
	UpdateIntakeFields(ctx context.Context, id int64, updates map[string]interface{}) error
}

/* ApplyResult is the structured outcome of an apply attempt */
type ApplyResult struct {
	Success           bool   `json:"success"`
	Error             string `json:"error,omitempty"`
	NeedsConfirmation bool   `json:"needsConfirmation,omitempty"`
	NeedsHuman        bool   `json:"needsHuman,omitempty"`
}

/* Service implements the action request lifecycle */
type Service struct {
	store Store
	audit *audit.Logger
}

/* NewService creates a new lifecycle service */
func NewService(store Store, auditLog *audit.Logger) *Service {
	return &Service{store: store, audit: auditLog}
}

/* CreateParams describes a new proposal */
type CreateParams struct {
	Tenant        string
	IntakeID      int64
	ChecklistKey  string
	ProposedValue interface{}
	MessageType   string
}

/* Create creates a new action request in pending state. Lock state is
 * the caller's concern: the sequencer checks it before proposing, and a
 * locked triple that slips through still fails at apply time. */
func (s *Service) Create(ctx context.Context, params CreateParams) (*db.ActionRequest, error) {
	now := time.Now()
	expiresAt := now.Add(actionTokenTTL)
	previewToken := NewPreviewToken()
	previewExpiresAt := now.Add(previewTokenTTL)

	req := &db.ActionRequest{
		Tenant:                   params.Tenant,
		IntakeID:                 params.IntakeID,
		ChecklistKey:             params.ChecklistKey,
		ProposedValue:            db.NewJSONBValue(params.ProposedValue),
		Token:                    NewActionToken(),
		ProposedPreviewToken:     &previewToken,
		ProposedPreviewExpiresAt: &previewExpiresAt,
		ExpiresAt:                &expiresAt,
	}
	if params.MessageType != "" {
		messageType := params.MessageType
		req.MessageType = &messageType
	}

	if err := s.store.CreateActionRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create action request: %w", err)
	}

	metrics.RecordActionRequestCreated(params.Tenant, params.ChecklistKey)
	metrics.InfoWithContext(ctx, "Action request created", map[string]interface{}{
		"action_request_id": req.ID.String(),
		"checklist_key":     params.ChecklistKey,
		"intake_id":         params.IntakeID,
	})
	return req, nil
}

/* GetByToken looks up an action request by its approval token */
func (s *Service) GetByToken(ctx context.Context, token string) (*db.ActionRequest, error) {
	return s.store.GetActionRequestByToken(ctx, token)
}

/* GetByPreviewToken looks up an action request by its preview token */
func (s *Service) GetByPreviewToken(ctx context.Context, token string) (*db.ActionRequest, error) {
	return s.store.GetActionRequestByPreviewToken(ctx, token)
}

/* IsChecklistKeyLocked reports whether the triple is closed to new asks */
func (s *Service) IsChecklistKeyLocked(ctx context.Context, tenant string, intakeID int64, checklistKey string) (bool, error) {
	return s.store.IsChecklistKeyLocked(ctx, tenant, intakeID, checklistKey)
}

/* RecordReply persists a classified customer reply on the request and
 * writes the matching customer audit event. Returns false when the
 * request had already moved past sent (duplicate delivery). */
func (s *Service) RecordReply(ctx context.Context, req *db.ActionRequest, channel string, classification Classification, rawInbound map[string]interface{}) (bool, error) {
	metrics.RecordClassification(string(classification.Intent))

	params := db.RespondedParams{
		ReplyChannel: channel,
		Confidence:   classification.Confidence,
		RawInbound:   db.FromMap(rawInbound),
	}
	if classification.Intent == IntentEditExact && classification.ExtractedValue != nil {
		v := db.NewJSONBValue(classification.ExtractedValue)
		params.NewProposedValue = &v
	}

	transitioned, err := s.store.MarkResponded(ctx, req.ID, params)
	if err != nil {
		return false, fmt.Errorf("failed to record reply: %w", err)
	}
	if !transitioned {
		metrics.WarnWithContext(ctx, "Reply ignored: request already past sent", map[string]interface{}{
			"action_request_id": req.ID.String(),
			"status":            req.Status,
		})
		return false, nil
	}

	if eventType := customerEventFor(classification.Intent); eventType != "" {
		s.audit.Log(ctx, audit.Entry{
			ActionRequestID: req.ID,
			IntakeID:        req.IntakeID,
			EventType:       eventType,
			ActorType:       audit.ActorCustomer,
			Meta: map[string]interface{}{
				"intent":     string(classification.Intent),
				"confidence": classification.Confidence,
				"rule":       classification.Rule,
				"channel":    channel,
			},
		})
	}
	return true, nil
}

func customerEventFor(intent Intent) string {
	switch intent {
	case IntentApprove:
		return audit.EventCustomerApproved
	case IntentEditExact:
		return audit.EventCustomerEdited
	case IntentEditAmbiguous, IntentNewRequest:
		return audit.EventCustomerUnclear
	default:
		/* Rejections are recorded by the escalation event */
		return ""
	}
}

/* Apply runs the precondition ladder and mutates the intake when every
 * check passes. Preconditions are checked in order and fail fast with a
 * distinct structured outcome. */
func (s *Service) Apply(ctx context.Context, id uuid.UUID) ApplyResult {
	req, err := s.store.GetActionRequest(ctx, id)
	if err != nil {
		metrics.RecordApply("error")
		return ApplyResult{Success: false, Error: err.Error()}
	}
	if req == nil {
		metrics.RecordApply("not_found")
		return ApplyResult{Success: false, Error: "Action request not found"}
	}

	ctx = metrics.WithActionRequestIDLogContext(ctx, req.ID)
	ctx = metrics.WithIntakeIDLogContext(ctx, req.IntakeID)
	ctx = metrics.WithTenantLogContext(ctx, req.Tenant)

	/* Idempotency guard: duplicate applies are no-ops, not corruption */
	if req.Status == db.StatusApplied || req.Status == db.StatusLocked {
		metrics.RecordApply("already_applied")
		return ApplyResult{Success: false, Error: "Already applied"}
	}

	/* A sent request past its expiry is effectively expired */
	if req.Status == db.StatusExpired ||
		(req.Status == db.StatusSent && req.ExpiresAt != nil && time.Now().After(*req.ExpiresAt)) {
		metrics.RecordApply("expired")
		return ApplyResult{Success: false, Error: "Expired"}
	}

	/* Lock exclusivity: a different request already locked this triple */
	locked, err := s.store.IsChecklistKeyLocked(ctx, req.Tenant, req.IntakeID, req.ChecklistKey)
	if err != nil {
		metrics.RecordApply("error")
		return ApplyResult{Success: false, Error: err.Error()}
	}
	if locked {
		metrics.RecordApply("locked")
		return ApplyResult{Success: false, Error: "Checklist key is locked", NeedsHuman: true}
	}

	rule, known := LookupRule(req.ChecklistKey)
	if !known {
		metrics.WarnWithContext(ctx, "Checklist key has no safety classification, using content default", map[string]interface{}{
			"checklist_key": req.ChecklistKey,
		})
	}

	/* Restricted categories always escalate, confidence is irrelevant */
	if rule.Category == CategoryRestricted {
		metrics.RecordApply("needs_human")
		return ApplyResult{Success: false, NeedsHuman: true}
	}

	confidence := 0.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	if confidence < rule.AutoApplyThreshold {
		if rule.Category == CategoryMediumRisk && confidence >= ConfirmationFloor {
			metrics.RecordApply("needs_confirmation")
			return ApplyResult{Success: false, NeedsConfirmation: true}
		}
		metrics.RecordApply("needs_human")
		return ApplyResult{Success: false, NeedsHuman: true}
	}

	intake, err := s.store.GetIntake(ctx, req.IntakeID)
	if err != nil {
		metrics.RecordApply("error")
		return ApplyResult{Success: false, Error: err.Error()}
	}
	if intake == nil {
		metrics.RecordApply("error")
		return ApplyResult{Success: false, Error: "Intake not found"}
	}

	previousValue, updates, knownKey := resolveChange(intake, req.ChecklistKey, req.ProposedValue)
	if !knownKey {
		metrics.WarnWithContext(ctx, "Unknown checklist key, applying as no-op", map[string]interface{}{
			"checklist_key": req.ChecklistKey,
		})
	}

	/* Claim the applied transition first; the conditional update is what
	 * makes concurrent duplicate triggers lose cleanly. */
	claimed, err := s.store.MarkApplied(ctx, req.ID)
	if err != nil {
		metrics.RecordApply("error")
		return ApplyResult{Success: false, Error: err.Error()}
	}
	if !claimed {
		metrics.RecordApply("already_applied")
		return ApplyResult{Success: false, Error: "Already applied"}
	}

	if knownKey {
		if err := s.store.UpdateIntakeFields(ctx, intake.ID, updates); err != nil {
			metrics.ErrorWithContext(ctx, "Intake mutation failed after applied claim", err, map[string]interface{}{
				"checklist_key": req.ChecklistKey,
			})
			metrics.RecordApply("error")
			return ApplyResult{Success: false, Error: err.Error()}
		}
	}

	s.audit.Log(ctx, audit.Entry{
		ActionRequestID: req.ID,
		IntakeID:        req.IntakeID,
		EventType:       audit.EventApplied,
		ActorType:       audit.ActorSystem,
		Meta: map[string]interface{}{
			"checklistKey":  req.ChecklistKey,
			"appliedValue":  req.ProposedValue.V,
			"previousValue": previousValue,
		},
	})

	metrics.RecordApply("success")
	metrics.InfoWithContext(ctx, "Action request applied", map[string]interface{}{
		"checklist_key": req.ChecklistKey,
	})
	return ApplyResult{Success: true}
}

/* ConfirmAndLock is the explicit terminal step after a successful
 * apply. Locking is what permanently closes the (tenant, intake,
 * checklist key) triple to future asks. */
func (s *Service) ConfirmAndLock(ctx context.Context, id uuid.UUID) error {
	req, err := s.store.GetActionRequest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load action request: %w", err)
	}
	if req == nil {
		return fmt.Errorf("action request %s not found", id)
	}
	if req.Status == db.StatusLocked {
		return nil
	}

	locked, err := s.store.MarkLocked(ctx, id)
	if err != nil {
		return fmt.Errorf("lock transition failed: %w", err)
	}
	if !locked {
		return fmt.Errorf("action request %s is not in applied state", id)
	}

	s.audit.Log(ctx, audit.Entry{
		ActionRequestID: req.ID,
		IntakeID:        req.IntakeID,
		EventType:       audit.EventLocked,
		ActorType:       audit.ActorSystem,
		Reason:          "Action request confirmed and locked",
	})
	return nil
}

/* Escalate parks a request for manual resolution and records why */
func (s *Service) Escalate(ctx context.Context, req *db.ActionRequest, reason string, meta map[string]interface{}) error {
	if _, err := s.store.MarkNeedsHuman(ctx, req.ID); err != nil {
		return fmt.Errorf("escalation transition failed: %w", err)
	}

	s.audit.Log(ctx, audit.Entry{
		ActionRequestID: req.ID,
		IntakeID:        req.IntakeID,
		EventType:       audit.EventEscalated,
		ActorType:       audit.ActorSystem,
		Reason:          reason,
		Meta:            meta,
	})

	metrics.InfoWithContext(ctx, "Action request escalated to human", map[string]interface{}{
		"action_request_id": req.ID.String(),
		"reason":            reason,
	})
	return nil
}

/* BatchItemResult is the per-id outcome of a batch approval */
type BatchItemResult struct {
	ID      uuid.UUID `json:"id"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

/* BatchSummary aggregates a batch approval run */
type BatchSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

/* BatchResult is the outcome of a batch approval */
type BatchResult struct {
	OK      bool              `json:"ok"`
	Summary BatchSummary      `json:"summary"`
	Results []BatchItemResult `json:"results"`
}

/* BatchApprove applies and locks each id with admin-grade confidence.
 * Partial failure is expected and reported per id; the batch never
 * fails atomically. */
func (s *Service) BatchApprove(ctx context.Context, ids []uuid.UUID, reason string) BatchResult {
	result := BatchResult{OK: true, Results: make([]BatchItemResult, 0, len(ids))}
	result.Summary.Total = len(ids)

	for _, id := range ids {
		item := s.batchApproveOne(ctx, id, reason)
		if item.Success {
			result.Summary.Success++
		} else {
			result.Summary.Failed++
		}
		result.Results = append(result.Results, item)
	}
	return result
}

func (s *Service) batchApproveOne(ctx context.Context, id uuid.UUID, reason string) BatchItemResult {
	req, err := s.store.GetActionRequest(ctx, id)
	if err != nil {
		return BatchItemResult{ID: id, Error: err.Error()}
	}
	if req == nil {
		return BatchItemResult{ID: id, Error: "Action request not found"}
	}
	if req.Status == db.StatusLocked {
		return BatchItemResult{ID: id, Error: "Already locked"}
	}

	/* Admin approval stands in for the customer's reply, and overrides a
	 * low-confidence or escalated one: batch approval is the human
	 * resolution path for needs_human requests. */
	if req.Status != db.StatusApplied {
		adminConfidence := 0.95
		_, err := s.store.MarkAdminResponded(ctx, req.ID, db.RespondedParams{
			ReplyChannel: db.ReplyChannelForm,
			Confidence:   adminConfidence,
			RawInbound:   db.JSONBMap{"method": "batch_approve", "reason": reason},
		})
		if err != nil {
			return BatchItemResult{ID: id, Error: err.Error()}
		}

		applyResult := s.Apply(ctx, id)
		if !applyResult.Success {
			return BatchItemResult{ID: id, Error: batchApplyError(applyResult)}
		}
	}

	if err := s.ConfirmAndLock(ctx, id); err != nil {
		return BatchItemResult{ID: id, Error: err.Error()}
	}

	s.audit.Log(ctx, audit.Entry{
		ActionRequestID: req.ID,
		IntakeID:        req.IntakeID,
		EventType:       audit.EventAdminApply,
		ActorType:       audit.ActorAdmin,
		Reason:          reason,
	})

	return BatchItemResult{ID: id, Success: true}
}

func batchApplyError(result ApplyResult) string {
	switch {
	case result.Error != "":
		return result.Error
	case result.NeedsConfirmation:
		return "Needs confirmation"
	case result.NeedsHuman:
		return "Needs human review"
	default:
		return "Apply failed"
	}
}
