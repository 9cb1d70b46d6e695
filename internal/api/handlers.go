/*-------------------------------------------------------------------------
 *
 * handlers.go
 *    Admin HTTP handlers for the lifecycle engine
 *
 * The admin surface: create action requests, inspect them with their
 * audit trail, batch approve, read learning stats, and trigger the
 * sequencer. All routes here sit behind API key auth.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/api/handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/launchbase/actionrequests/internal/actionrequests"
	"github.com/launchbase/actionrequests/internal/audit"
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/launchbase/actionrequests/internal/learning"
	"github.com/launchbase/actionrequests/internal/notifications"
	"github.com/launchbase/actionrequests/internal/sequencer"
)

/* Store is the read surface the handlers need beyond the services */
type Store interface {
	GetActionRequest(ctx context.Context, id uuid.UUID) (*db.ActionRequest, error)
	GetIntake(ctx context.Context, id int64) (*db.Intake, error)
	ListActionRequestsForIntake(ctx context.Context, intakeID int64) ([]db.ActionRequest, error)
	ListActionRequestEvents(ctx context.Context, actionRequestID uuid.UUID) ([]db.ActionRequestEvent, error)
	ListIntakeEvents(ctx context.Context, intakeID int64) ([]db.ActionRequestEvent, error)
}

/* Handlers holds the API handler dependencies */
type Handlers struct {
	store     Store
	service   *actionrequests.Service
	tracker   *learning.Tracker
	sequencer *sequencer.Sequencer
	mailer    notifications.Mailer
	audit     *audit.Logger
	baseURL   string
}

/* NewHandlers creates the API handlers */
func NewHandlers(store Store, service *actionrequests.Service, tracker *learning.Tracker, seq *sequencer.Sequencer, mailer notifications.Mailer, auditLog *audit.Logger, baseURL string) *Handlers {
	return &Handlers{
		store:     store,
		service:   service,
		tracker:   tracker,
		sequencer: seq,
		mailer:    mailer,
		audit:     auditLog,
		baseURL:   baseURL,
	}
}

/* HealthCheck handles GET /health */
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type createActionRequestBody struct {
	Tenant        string      `json:"tenant"`
	IntakeID      int64       `json:"intakeId"`
	ChecklistKey  string      `json:"checklistKey"`
	ProposedValue interface{} `json:"proposedValue"`
	MessageType   string      `json:"messageType"`
}

/* CreateActionRequest handles POST /api/action-requests */
func (h *Handlers) CreateActionRequest(w http.ResponseWriter, r *http.Request) {
	var body createActionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, NewAPIError(http.StatusBadRequest, "Invalid request body", err, GetRequestID(r.Context())))
		return
	}
	if body.Tenant == "" || body.IntakeID == 0 || body.ChecklistKey == "" || body.ProposedValue == nil {
		respondError(w, NewAPIError(http.StatusBadRequest, "tenant, intakeId, checklistKey and proposedValue are required", nil, GetRequestID(r.Context())))
		return
	}

	locked, err := h.service.IsChecklistKeyLocked(r.Context(), body.Tenant, body.IntakeID, body.ChecklistKey)
	if err != nil {
		respondError(w, NewAPIError(http.StatusInternalServerError, "Failed to check lock state", err, GetRequestID(r.Context())))
		return
	}
	if locked {
		respondError(w, NewAPIError(http.StatusConflict, "Checklist key is locked", nil, GetRequestID(r.Context())))
		return
	}

	req, err := h.service.Create(r.Context(), actionrequests.CreateParams{
		Tenant:        body.Tenant,
		IntakeID:      body.IntakeID,
		ChecklistKey:  body.ChecklistKey,
		ProposedValue: body.ProposedValue,
		MessageType:   body.MessageType,
	})
	if err != nil {
		respondError(w, NewAPIError(http.StatusInternalServerError, "Failed to create action request", err, GetRequestID(r.Context())))
		return
	}

	respondJSON(w, http.StatusCreated, req)
}

/* GetActionRequest handles GET /api/action-requests/{id} */
func (h *Handlers) GetActionRequest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, NewAPIError(http.StatusBadRequest, "Invalid action request ID", err, GetRequestID(r.Context())))
		return
	}

	req, err := h.store.GetActionRequest(r.Context(), id)
	if err != nil {
		respondError(w, NewAPIError(http.StatusInternalServerError, "Failed to load action request", err, GetRequestID(r.Context())))
		return
	}
	if req == nil {
		respondError(w, NewAPIError(http.StatusNotFound, "Action request not found", nil, GetRequestID(r.Context())))
		return
	}

	events, err := h.store.ListActionRequestEvents(r.Context(), id)
	if err != nil {
		respondError(w, NewAPIError(http.StatusInternalServerError, "Failed to load audit events", err, GetRequestID(r.Context())))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"actionRequest": req,
		"events":        events,
	})
}

/* GetActionRequestByToken handles GET /api/action-requests/token/{token}.
 * Support debugging: resolve the token a customer is holding without
 * acting on it. */
func (h *Handlers) GetActionRequestByToken(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.GetByToken(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		respondError(w, NewAPIError(http.StatusInternalServerError, "Failed to load action request", err, GetRequestID(r.Context())))
		return
	}
	if req == nil {
		respondError(w, NewAPIError(http.StatusNotFound, "Action request not found", nil, GetRequestID(r.Context())))
		return
	}

	events, err := h.store.ListActionRequestEvents(r.Context(), req.ID)
	if err != nil {
		respondError(w, NewAPIError(http.StatusInternalServerError, "Failed to load audit events", err, GetRequestID(r.Context())))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"actionRequest": req,
		"events":        events,
	})
}

/* ListIntakeActionRequests handles GET /api/intakes/{id}/action-requests */
func (h *Handlers) ListIntakeActionRequests(w http.ResponseWriter, r *http.Request) {
	intakeID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, NewAPIError(http.StatusBadRequest, "Invalid intake ID", err, GetRequestID(r.Context())))
		return
	}

	requests, err := h.store.ListActionRequestsForIntake(r.Context(), intakeID)
	if err != nil {
		respondError(w, NewAPIError(http.StatusInternalServerError, "Failed to list action requests", err, GetRequestID(r.Context())))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"actionRequests": requests,
		"count":          len(requests),
	})
}

/* ListIntakeEvents handles GET /api/intakes/{id}/events */
func (h *Handlers) ListIntakeEvents(w http.ResponseWriter, r *http.Request) {
	intakeID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, NewAPIError(http.StatusBadRequest, "Invalid intake ID", err, GetRequestID(r.Context())))
		return
	}

	events, err := h.store.ListIntakeEvents(r.Context(), intakeID)
	if err != nil {
		respondError(w, NewAPIError(http.StatusInternalServerError, "Failed to list audit events", err, GetRequestID(r.Context())))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

type batchApproveBody struct {
	IDs    []string `json:"ids"`
	Reason string   `json:"reason"`
}

/* maxBatchSize bounds one batch approval request */
const maxBatchSize = 100

/* BatchApprove handles POST /api/action-requests/batch-approve */
func (h *Handlers) BatchApprove(w http.ResponseWriter, r *http.Request) {
	var body batchApproveBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, NewAPIError(http.StatusBadRequest, "Invalid request body", err, GetRequestID(r.Context())))
		return
	}
	if len(body.IDs) == 0 {
		respondError(w, NewAPIError(http.StatusBadRequest, "ids is required", nil, GetRequestID(r.Context())))
		return
	}
	if len(body.IDs) > maxBatchSize {
		respondError(w, NewAPIError(http.StatusBadRequest, "Too many ids in one batch", nil, GetRequestID(r.Context())))
		return
	}

	ids := make([]uuid.UUID, 0, len(body.IDs))
	for _, raw := range body.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, NewAPIError(http.StatusBadRequest, "Invalid action request ID: "+raw, err, GetRequestID(r.Context())))
			return
		}
		ids = append(ids, id)
	}

	result := h.service.BatchApprove(r.Context(), ids, body.Reason)
	respondJSON(w, http.StatusOK, result)
}

/* GetLearningStats handles GET /api/learning/{tenant}/{checklistKey} */
func (h *Handlers) GetLearningStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tenant := vars["tenant"]
	checklistKey := vars["checklistKey"]

	record, err := h.tracker.Stats(r.Context(), tenant, checklistKey)
	if err != nil {
		respondError(w, NewAPIError(http.StatusInternalServerError, "Failed to load learning stats", err, GetRequestID(r.Context())))
		return
	}
	if record == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"tenant":               tenant,
			"checklistKey":         checklistKey,
			"totalSent":            0,
			"recommendedThreshold": learning.DefaultThreshold,
		})
		return
	}

	respondJSON(w, http.StatusOK, record)
}

/* TriggerSequencer handles POST /api/cron/action-requests. Runs one
 * sequencer tick synchronously so schedulers get the tick summary back. */
func (h *Handlers) TriggerSequencer(w http.ResponseWriter, r *http.Request) {
	result := h.sequencer.Tick(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, result)
}
