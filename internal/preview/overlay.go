/*-------------------------------------------------------------------------
 *
 * overlay.go
 *    In-memory proposed-change overlay
 *
 * Applies a proposed value to a copy of the intake so the customer can
 * see the change before approving it. Pure and read-only: the overlay
 * is never persisted.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/preview/overlay.go
 *
 *-------------------------------------------------------------------------
 */

package preview

import (
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/lib/pq"
)

/* ApplyOverlay returns a copy of the intake with the proposed value in
 * place. ok is false for checklist keys the preview cannot render;
 * callers fall back to a page that still offers approve and edit. */
func ApplyOverlay(intake *db.Intake, checklistKey string, proposedValue db.JSONBValue) (*db.Intake, bool) {
	overlaid := *intake

	switch checklistKey {
	case "homepage.headline":
		overlaid.BusinessName = proposedValue.String()

	case "homepage.subheadline", "homepage.tagline":
		s := proposedValue.String()
		overlaid.Tagline = &s

	case "cta.primary", "contact.cta":
		s := proposedValue.String()
		overlaid.PrimaryCTA = &s

	case "homepage.services", "services.list":
		overlaid.Services = toStringArray(proposedValue)

	case "gmb.category":
		s := proposedValue.String()
		overlaid.GMBCategory = &s

	case "contact.phone":
		s := proposedValue.String()
		overlaid.Phone = &s

	case "contact.email":
		overlaid.Email = proposedValue.String()

	case "contact.booking_link":
		s := proposedValue.String()
		overlaid.BookingLink = &s

	case "homepage.about":
		s := proposedValue.String()
		overlaid.About = &s

	case "branding.colors":
		if m, ok := proposedValue.V.(map[string]interface{}); ok {
			overlaid.BrandColors = db.FromMap(m)
		}

	default:
		return nil, false
	}

	return &overlaid, true
}

func toStringArray(v db.JSONBValue) pq.StringArray {
	switch vv := v.V.(type) {
	case []interface{}:
		out := make(pq.StringArray, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return pq.StringArray(vv)
	case string:
		return pq.StringArray{vv}
	default:
		return nil
	}
}
