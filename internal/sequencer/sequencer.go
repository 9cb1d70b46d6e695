/*-------------------------------------------------------------------------
 *
 * sequencer.go
 *    Action request sequencer
 *
 * Walks the Day-0 question catalog for every paid intake and creates
 * the next action request once the previous one is terminal and the
 * step delay has elapsed. The sequencer keeps no state of its own:
 * every tick recomputes the next action from persisted requests alone,
 * so it can run on any schedule and is safe to re-run.
 *
 * Sequencing rules:
 *   - Only send the next question when the prior one is locked,
 *     expired, or parked for a human
 *   - Never re-ask locked items, never double-create unanswered ones
 *   - Respect timing delays between messages
 *   - Mark sent only on confirmed delivery
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/sequencer/sequencer.go
 *
 *-------------------------------------------------------------------------
 */

package sequencer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/launchbase/actionrequests/internal/actionrequests"
	"github.com/launchbase/actionrequests/internal/audit"
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/launchbase/actionrequests/internal/metrics"
	"github.com/launchbase/actionrequests/internal/notifications"
	"golang.org/x/sync/errgroup"
)

/* Store is the persistence surface the sequencer needs */
type Store interface {
	ListPaidIntakes(ctx context.Context) ([]db.Intake, error)
	ListActionRequestsForIntake(ctx context.Context, intakeID int64) ([]db.ActionRequest, error)
	MarkSent(ctx context.Context, id uuid.UUID) (bool, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

/* Sequencer produces action requests on the Day-0 cadence */
type Sequencer struct {
	store       Store
	service     *actionrequests.Service
	mailer      notifications.Mailer
	audit       *audit.Logger
	catalog     []Step
	parallelism int
}

/* New creates a new sequencer over the Day-0 catalog */
func New(store Store, service *actionrequests.Service, mailer notifications.Mailer, auditLog *audit.Logger) *Sequencer {
	return &Sequencer{
		store:       store,
		service:     service,
		mailer:      mailer,
		audit:       auditLog,
		catalog:     Day0Sequence,
		parallelism: 4,
	}
}

/* TickResult summarizes one sequencer run */
type TickResult struct {
	Success   bool  `json:"success"`
	Processed int   `json:"processed"`
	Created   int   `json:"created"`
	Errors    int   `json:"errors"`
	Expired   int64 `json:"expired"`
}

/* Tick runs one sequencing pass over all paid intakes */
func (s *Sequencer) Tick(ctx context.Context) TickResult {
	start := time.Now()
	result := TickResult{Success: true}

	expired, err := s.store.ExpireOverdue(ctx)
	if err != nil {
		metrics.ErrorWithContext(ctx, "Expiry sweep failed", err, nil)
		result.Errors++
	}
	result.Expired = expired

	intakes, err := s.store.ListPaidIntakes(ctx)
	if err != nil {
		metrics.ErrorWithContext(ctx, "Failed to list paid intakes", err, nil)
		metrics.RecordSequencerRun("error", time.Since(start))
		result.Success = false
		result.Errors++
		return result
	}

	type outcome struct {
		created bool
		err     error
	}
	outcomes := make([]outcome, len(intakes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i := range intakes {
		i := i
		g.Go(func() error {
			created, err := s.processIntake(gctx, &intakes[i])
			outcomes[i] = outcome{created: created, err: err}
			/* Per-intake failures never abort the tick */
			return nil
		})
	}
	g.Wait()

	for i := range outcomes {
		result.Processed++
		if outcomes[i].created {
			result.Created++
		}
		if outcomes[i].err != nil {
			result.Errors++
			metrics.ErrorWithContext(ctx, "Intake sequencing failed", outcomes[i].err, map[string]interface{}{
				"intake_id": intakes[i].ID,
			})
		}
	}

	status := "ok"
	if result.Errors > 0 {
		status = "partial"
	}
	metrics.RecordSequencerRun(status, time.Since(start))
	metrics.InfoWithContext(ctx, "Sequencer tick complete", map[string]interface{}{
		"processed": result.Processed,
		"created":   result.Created,
		"errors":    result.Errors,
		"expired":   result.Expired,
	})
	return result
}

/* processIntake advances one intake by at most one step per tick */
func (s *Sequencer) processIntake(ctx context.Context, intake *db.Intake) (bool, error) {
	ctx = metrics.WithIntakeIDLogContext(ctx, intake.ID)
	ctx = metrics.WithTenantLogContext(ctx, intake.Tenant)

	requests, err := s.store.ListActionRequestsForIntake(ctx, intake.ID)
	if err != nil {
		return false, err
	}

	step := s.nextStep(requests)
	if step == nil {
		return false, nil
	}

	referenceTime := intake.CreatedAt
	if len(requests) > 0 {
		referenceTime = requests[len(requests)-1].CreatedAt
	}

	elapsed := time.Since(referenceTime)
	delay := time.Duration(step.DelayMinutes) * time.Minute
	if elapsed < delay {
		metrics.DebugWithContext(ctx, "Next step not due yet", map[string]interface{}{
			"checklist_key": step.ChecklistKey,
			"wait":          (delay - elapsed).String(),
		})
		return false, nil
	}

	proposedValue := step.GenerateValue(intake)

	req, err := s.service.Create(ctx, actionrequests.CreateParams{
		Tenant:        intake.Tenant,
		IntakeID:      intake.ID,
		ChecklistKey:  step.ChecklistKey,
		ProposedValue: proposedValue,
		MessageType:   step.MessageType,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create action request for step %s: %w", step.ChecklistKey, err)
	}

	s.deliver(ctx, intake, req, step)
	return true, nil
}

/* nextStep finds the first catalog step that is ready to send. An
 * unanswered request (pending/sent) parks the whole sequence; terminal
 * statuses let it continue. */
func (s *Sequencer) nextStep(requests []db.ActionRequest) *Step {
	statusByKey := make(map[string]string, len(requests))
	for _, req := range requests {
		statusByKey[req.ChecklistKey] = req.Status
	}

	for i := range s.catalog {
		step := &s.catalog[i]
		status, exists := statusByKey[step.ChecklistKey]

		if !exists {
			if i == 0 {
				return step
			}
			prevStatus := statusByKey[s.catalog[i-1].ChecklistKey]
			if isTerminal(prevStatus) {
				return step
			}
			return nil
		}

		if status == db.StatusPending || status == db.StatusSent || status == db.StatusResponded {
			/* Unanswered or mid-flight; never double-create */
			return nil
		}
		/* Terminal: continue to the next step */
	}

	return nil
}

func isTerminal(status string) bool {
	return status == db.StatusLocked || status == db.StatusExpired || status == db.StatusNeedsHuman
}

/* deliver sends the question and transitions to sent only when the
 * gateway confirms delivery; failures stay pending for the next tick. */
func (s *Sequencer) deliver(ctx context.Context, intake *db.Intake, req *db.ActionRequest, step *Step) {
	previewToken := ""
	if req.ProposedPreviewToken != nil {
		previewToken = *req.ProposedPreviewToken
	}

	result := s.mailer.SendActionRequest(ctx, notifications.ActionRequestMessage{
		To:            intake.Email,
		FirstName:     firstName(intake.ContactName),
		BusinessName:  intake.BusinessName,
		QuestionText:  step.QuestionText,
		ProposedValue: req.ProposedValue.String(),
		ChecklistKey:  step.ChecklistKey,
		Token:         req.Token,
		PreviewToken:  previewToken,
	})

	if result.Success {
		if _, err := s.store.MarkSent(ctx, req.ID); err != nil {
			metrics.ErrorWithContext(ctx, "Sent transition failed after delivery", err, map[string]interface{}{
				"action_request_id": req.ID.String(),
			})
			return
		}

		s.audit.Log(ctx, audit.Entry{
			ActionRequestID: req.ID,
			IntakeID:        intake.ID,
			EventType:       audit.EventSent,
			ActorType:       audit.ActorSystem,
			Meta: map[string]interface{}{
				"messageType": step.MessageType,
				"provider":    result.Provider,
				"messageId":   result.MessageID,
				"to":          intake.Email,
				"subject":     fmt.Sprintf("Approve: %s", step.QuestionText),
			},
		})

		metrics.InfoWithContext(ctx, "Action request sent", map[string]interface{}{
			"action_request_id": req.ID.String(),
			"message_type":      step.MessageType,
		})
		return
	}

	/* Delivery failed: the request stays pending so the next tick
	 * retries, and the failure is visible in the audit trail. */
	s.audit.Log(ctx, audit.Entry{
		ActionRequestID: req.ID,
		IntakeID:        intake.ID,
		EventType:       audit.EventSendFailed,
		ActorType:       audit.ActorSystem,
		Reason:          failureReason(result.Error),
		Meta: map[string]interface{}{
			"messageType": step.MessageType,
			"provider":    result.Provider,
		},
	})

	metrics.WarnWithContext(ctx, "Action request delivery failed", map[string]interface{}{
		"action_request_id": req.ID.String(),
		"error":             result.Error,
	})
}

func failureReason(errMsg string) string {
	if errMsg == "" {
		return "unknown"
	}
	return errMsg
}

func firstName(contactName string) string {
	parts := strings.Fields(contactName)
	if len(parts) == 0 {
		return contactName
	}
	return parts[0]
}
