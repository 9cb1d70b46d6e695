/*-------------------------------------------------------------------------
 *
 * overlay_test.go
 *    Tests for the proposed-change overlay and preview rendering
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/preview/overlay_test.go
 *
 *-------------------------------------------------------------------------
 */

package preview

import (
	"testing"
	"time"

	"github.com/launchbase/actionrequests/internal/db"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIntake() *db.Intake {
	tagline := "Fast and friendly"
	phone := "555-123-4567"
	return &db.Intake{
		ID:           1,
		Tenant:       "acme",
		Email:        "owner@acme.test",
		BusinessName: "Acme Rooter",
		Tagline:      &tagline,
		Phone:        &phone,
		Services:     pq.StringArray{"Drain Cleaning"},
	}
}

func TestApplyOverlayHeadline(t *testing.T) {
	intake := sampleIntake()
	overlaid, ok := ApplyOverlay(intake, "homepage.headline", db.NewJSONBValue("Acme Drain Masters"))
	require.True(t, ok)
	assert.Equal(t, "Acme Drain Masters", overlaid.BusinessName)
	/* The source intake is untouched */
	assert.Equal(t, "Acme Rooter", intake.BusinessName)
}

func TestApplyOverlayServicesFromJSONArray(t *testing.T) {
	/* jsonb round-trips arrays as []interface{} */
	value := db.NewJSONBValue([]interface{}{"Drain Cleaning", "Hydro Jetting"})
	overlaid, ok := ApplyOverlay(sampleIntake(), "homepage.services", value)
	require.True(t, ok)
	assert.Equal(t, pq.StringArray{"Drain Cleaning", "Hydro Jetting"}, overlaid.Services)
}

func TestApplyOverlayAliases(t *testing.T) {
	overlaid, ok := ApplyOverlay(sampleIntake(), "contact.cta", db.NewJSONBValue("Book Online"))
	require.True(t, ok)
	require.NotNil(t, overlaid.PrimaryCTA)
	assert.Equal(t, "Book Online", *overlaid.PrimaryCTA)

	overlaid, ok = ApplyOverlay(sampleIntake(), "services.list", db.NewJSONBValue([]string{"Repairs"}))
	require.True(t, ok)
	assert.Equal(t, pq.StringArray{"Repairs"}, overlaid.Services)
}

func TestApplyOverlayUnknownKey(t *testing.T) {
	overlaid, ok := ApplyOverlay(sampleIntake(), "hours.schedule", db.NewJSONBValue("9-5"))
	assert.False(t, ok)
	assert.Nil(t, overlaid)
}

func TestRenderPreviewPage(t *testing.T) {
	overlaid, ok := ApplyOverlay(sampleIntake(), "homepage.headline", db.NewJSONBValue("Acme Drain Masters"))
	require.True(t, ok)

	html, err := RenderPreviewPage(overlaid, "homepage.headline", "action_123_abcd")
	require.NoError(t, err)
	assert.Contains(t, html, "Acme Drain Masters")
	assert.Contains(t, html, "homepage.headline")
	assert.Contains(t, html, "/api/actions/action_123_abcd/approve")
	assert.Contains(t, html, "/api/actions/action_123_abcd/edit")
}

func TestRenderFallbackPageOffersActions(t *testing.T) {
	html, err := RenderFallbackPage("hours.schedule", "action_123_abcd")
	require.NoError(t, err)
	assert.Contains(t, html, "hours.schedule")
	assert.Contains(t, html, "/api/actions/action_123_abcd/approve")
	assert.Contains(t, html, "/api/actions/action_123_abcd/edit")
}

func TestRenderExpiredPage(t *testing.T) {
	expiredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	html, err := RenderExpiredPage(expiredAt)
	require.NoError(t, err)
	assert.Contains(t, html, "Preview Expired")
	assert.Contains(t, html, "2026")
}

func TestRenderNotFoundPage(t *testing.T) {
	html, err := RenderNotFoundPage()
	require.NoError(t, err)
	assert.Contains(t, html, "Preview Not Found")
}
