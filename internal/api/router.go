/*-------------------------------------------------------------------------
 *
 * router.go
 *    HTTP route registration
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/api/router.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/launchbase/actionrequests/internal/metrics"
)

/* NewRouter builds the engine's HTTP router */
func NewRouter(handlers *Handlers, apiKeys []string) *mux.Router {
	router := mux.NewRouter()

	router.Use(RecoveryMiddleware)
	router.Use(RequestIDMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(AuthMiddleware(apiKeys))

	/* Operational */
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	/* Admin surface */
	router.HandleFunc("/api/action-requests", handlers.CreateActionRequest).Methods(http.MethodPost)
	router.HandleFunc("/api/action-requests/batch-approve", handlers.BatchApprove).Methods(http.MethodPost)
	router.HandleFunc("/api/action-requests/token/{token}", handlers.GetActionRequestByToken).Methods(http.MethodGet)
	router.HandleFunc("/api/action-requests/{id}", handlers.GetActionRequest).Methods(http.MethodGet)
	router.HandleFunc("/api/intakes/{id}/action-requests", handlers.ListIntakeActionRequests).Methods(http.MethodGet)
	router.HandleFunc("/api/intakes/{id}/events", handlers.ListIntakeEvents).Methods(http.MethodGet)
	router.HandleFunc("/api/learning/{tenant}/{checklistKey}", handlers.GetLearningStats).Methods(http.MethodGet)
	router.HandleFunc("/api/cron/action-requests", handlers.TriggerSequencer).Methods(http.MethodPost)

	/* Customer-facing token links */
	router.HandleFunc("/api/actions/{token}/approve", handlers.ApproveAction).Methods(http.MethodGet)
	router.HandleFunc("/api/actions/{token}/edit", handlers.EditActionForm).Methods(http.MethodGet)
	router.HandleFunc("/api/actions/{token}/edit", handlers.SubmitActionEdit).Methods(http.MethodPost)
	router.HandleFunc("/preview/proposed/{token}", handlers.ProposedPreview).Methods(http.MethodGet)

	/* Provider webhooks */
	router.HandleFunc("/api/webhooks/email-inbound", handlers.InboundEmail).Methods(http.MethodPost)

	return router
}
