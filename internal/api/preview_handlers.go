/*-------------------------------------------------------------------------
 *
 * preview_handlers.go
 *    Proposed-change preview pages
 *
 * Serves the "see what it will look like" link from action request
 * emails. A render failure degrades to a fallback page that still
 * offers approve and edit; only a missing or expired token is terminal.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/api/preview_handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/launchbase/actionrequests/internal/audit"
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/launchbase/actionrequests/internal/metrics"
	"github.com/launchbase/actionrequests/internal/preview"
)

/* ProposedPreview handles GET /preview/proposed/{token} */
func (h *Handlers) ProposedPreview(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	req, err := h.service.GetByPreviewToken(r.Context(), token)
	if err != nil {
		metrics.RecordPreviewRendered("error")
		renderTerminalPage(w, http.StatusInternalServerError, "Something Went Wrong", "We couldn't load this preview right now. Please try again in a few minutes.")
		return
	}
	if req == nil {
		metrics.RecordPreviewRendered("not_found")
		page, perr := preview.RenderNotFoundPage()
		if perr != nil {
			renderTerminalPage(w, http.StatusNotFound, "Preview Not Found", "This preview link doesn't exist.")
			return
		}
		respondHTML(w, http.StatusNotFound, page)
		return
	}

	ctx := metrics.WithActionRequestIDLogContext(r.Context(), req.ID)
	ctx = metrics.WithIntakeIDLogContext(ctx, req.IntakeID)
	ctx = metrics.WithTenantLogContext(ctx, req.Tenant)

	if req.ProposedPreviewExpiresAt != nil && time.Now().After(*req.ProposedPreviewExpiresAt) {
		metrics.RecordPreviewRendered("expired")
		page, perr := preview.RenderExpiredPage(*req.ProposedPreviewExpiresAt)
		if perr != nil {
			renderTerminalPage(w, http.StatusGone, "Preview Expired", "This preview link has expired.")
			return
		}
		respondHTML(w, http.StatusGone, page)
		return
	}

	intake, err := h.store.GetIntake(ctx, req.IntakeID)
	if err != nil || intake == nil {
		metrics.RecordPreviewRendered("error")
		renderTerminalPage(w, http.StatusInternalServerError, "Something Went Wrong", "We couldn't load this preview right now. Please try again in a few minutes.")
		return
	}

	overlaid, ok := preview.ApplyOverlay(intake, req.ChecklistKey, req.ProposedValue)
	if !ok {
		h.renderPreviewFallback(ctx, w, req, "unsupported checklist key")
		return
	}

	page, err := preview.RenderPreviewPage(overlaid, req.ChecklistKey, req.Token)
	if err != nil {
		h.renderPreviewFallback(ctx, w, req, err.Error())
		return
	}

	metrics.RecordPreviewRendered("success")
	h.audit.Log(ctx, audit.Entry{
		ActionRequestID: req.ID,
		IntakeID:        req.IntakeID,
		EventType:       audit.EventPreviewViewed,
		ActorType:       audit.ActorCustomer,
		Meta: map[string]interface{}{
			"checklistKey": req.ChecklistKey,
		},
	})
	respondHTML(w, http.StatusOK, page)
}

/* renderPreviewFallback serves the degraded page and records why the
 * real preview could not render */
func (h *Handlers) renderPreviewFallback(ctx context.Context, w http.ResponseWriter, req *db.ActionRequest, reason string) {
	metrics.RecordPreviewRendered("fallback")

	h.audit.Log(ctx, audit.Entry{
		ActionRequestID: req.ID,
		IntakeID:        req.IntakeID,
		EventType:       audit.EventProposedPreviewRenderFailed,
		ActorType:       audit.ActorSystem,
		Reason:          reason,
		Meta: map[string]interface{}{
			"checklistKey": req.ChecklistKey,
		},
	})

	page, perr := preview.RenderFallbackPage(req.ChecklistKey, req.Token)
	if perr != nil {
		renderTerminalPage(w, http.StatusOK, "Preview Unavailable", "We couldn't render this preview, but you can still approve or reply with edits from your email.")
		return
	}
	respondHTML(w, http.StatusOK, page)
}
