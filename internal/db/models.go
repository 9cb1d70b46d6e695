/*-------------------------------------------------------------------------
 *
 * models.go
 *    Core data models for the action request lifecycle engine
 *
 * Defines action requests, intakes, audit events, and confidence
 * learning records.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/db/models.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

/* Action request statuses */
const (
	StatusPending    = "pending"
	StatusSent       = "sent"
	StatusResponded  = "responded"
	StatusApplied    = "applied"
	StatusLocked     = "locked"
	StatusNeedsHuman = "needs_human"
	StatusExpired    = "expired"
)

/* Reply channels */
const (
	ReplyChannelLink  = "link"
	ReplyChannelEmail = "email"
	ReplyChannelForm  = "form"
)

/* ActionRequest is one pending proposed change to one field of one intake */
type ActionRequest struct {
	ID                       uuid.UUID  `db:"id" json:"id"`
	Tenant                   string     `db:"tenant" json:"tenant"`
	IntakeID                 int64      `db:"intake_id" json:"intakeId"`
	ChecklistKey             string     `db:"checklist_key" json:"checklistKey"`
	ProposedValue            JSONBValue `db:"proposed_value" json:"proposedValue"`
	Status                   string     `db:"status" json:"status"`
	Token                    string     `db:"token" json:"token"`
	MessageType              *string    `db:"message_type" json:"messageType,omitempty"`
	Confidence               *float64   `db:"confidence" json:"confidence,omitempty"`
	ReplyChannel             *string    `db:"reply_channel" json:"replyChannel,omitempty"`
	RawInbound               JSONBMap   `db:"raw_inbound" json:"rawInbound,omitempty"`
	SendCount                int        `db:"send_count" json:"sendCount"`
	LastSentAt               *time.Time `db:"last_sent_at" json:"lastSentAt,omitempty"`
	ProposedPreviewToken     *string    `db:"proposed_preview_token" json:"proposedPreviewToken,omitempty"`
	ProposedPreviewExpiresAt *time.Time `db:"proposed_preview_expires_at" json:"proposedPreviewExpiresAt,omitempty"`
	ExpiresAt                *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt                time.Time  `db:"created_at" json:"createdAt"`
	SentAt                   *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	RespondedAt              *time.Time `db:"responded_at" json:"respondedAt,omitempty"`
	AppliedAt                *time.Time `db:"applied_at" json:"appliedAt,omitempty"`
}

/* Intake is the target business record an action request mutates */
type Intake struct {
	ID           int64          `db:"id"`
	Tenant       string         `db:"tenant"`
	Email        string         `db:"email"`
	ContactName  string         `db:"contact_name"`
	BusinessName string         `db:"business_name"`
	Tagline      *string        `db:"tagline"`
	About        *string        `db:"about"`
	Phone        *string        `db:"phone"`
	BookingLink  *string        `db:"booking_link"`
	PrimaryCTA   *string        `db:"primary_cta"`
	Services     pq.StringArray `db:"services"`
	ServiceArea  pq.StringArray `db:"service_area"`
	GMBCategory  *string        `db:"gmb_category"`
	BrandColors  JSONBMap       `db:"brand_colors"`
	Vertical     *string        `db:"vertical"`
	PrimaryTrade *string        `db:"primary_trade"`
	Status       string         `db:"status"`
	PreviewURL   *string        `db:"preview_url"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

/* ActionRequestEvent is one immutable audit event for an action request */
type ActionRequestEvent struct {
	ID              int64     `db:"id" json:"id"`
	ActionRequestID uuid.UUID `db:"action_request_id" json:"actionRequestId"`
	IntakeID        int64     `db:"intake_id" json:"intakeId"`
	EventType       string    `db:"event_type" json:"eventType"`
	ActorType       string    `db:"actor_type" json:"actorType"`
	Reason          *string   `db:"reason" json:"reason,omitempty"`
	Meta            JSONBMap  `db:"meta" json:"meta,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

/* ConfidenceLearning aggregates reply outcomes per (tenant, checklist key) */
type ConfidenceLearning struct {
	ID                   int64     `db:"id" json:"id"`
	Tenant               string    `db:"tenant" json:"tenant"`
	ChecklistKey         string    `db:"checklist_key" json:"checklistKey"`
	TotalSent            int       `db:"total_sent" json:"totalSent"`
	TotalApproved        int       `db:"total_approved" json:"totalApproved"`
	TotalRejected        int       `db:"total_rejected" json:"totalRejected"`
	TotalEdited          int       `db:"total_edited" json:"totalEdited"`
	TotalUnclear         int       `db:"total_unclear" json:"totalUnclear"`
	ApprovalRate         float64   `db:"approval_rate" json:"approvalRate"`
	EditRate             float64   `db:"edit_rate" json:"editRate"`
	RecommendedThreshold float64   `db:"recommended_threshold" json:"recommendedThreshold"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}
