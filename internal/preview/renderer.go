/*-------------------------------------------------------------------------
 *
 * renderer.go
 *    HTML rendering for proposed-change previews
 *
 * Renders the "what it will look like" page and its terminal fallbacks.
 * Every page reached from an email link must be friendly and must
 * always offer a way to act, even when the preview itself cannot be
 * rendered.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/preview/renderer.go
 *
 *-------------------------------------------------------------------------
 */

package preview

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/launchbase/actionrequests/internal/db"
)

var previewTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head><title>Preview: {{.BusinessName}}</title>
<style>
  body { font-family: system-ui; max-width: 720px; margin: 0 auto; padding: 24px; }
  .banner { background: #fef3c7; border: 1px solid #f59e0b; border-radius: 8px; padding: 12px 16px; margin-bottom: 24px; }
  .site { border: 1px solid #e5e7eb; border-radius: 8px; padding: 32px; }
  .tagline { color: #6b7280; }
  .cta { display: inline-block; background: #2563eb; color: white; padding: 10px 20px; border-radius: 6px; margin-top: 16px; }
  .actions a { display: inline-block; padding: 12px 24px; border-radius: 6px; color: white; text-decoration: none; margin-right: 12px; margin-top: 24px; }
  .approve { background: #16a34a; }
  .edit { background: #ea580c; }
</style>
</head>
<body>
  <div class="banner">This is a preview of a proposed change to <strong>{{.ChecklistKey}}</strong>. Nothing is live yet.</div>
  <div class="site">
    <h1>{{.BusinessName}}</h1>
    {{if .Tagline}}<p class="tagline">{{.Tagline}}</p>{{end}}
    {{if .Services}}<ul>{{range .Services}}<li>{{.}}</li>{{end}}</ul>{{end}}
    {{if .Phone}}<p>Call us: {{.Phone}}</p>{{end}}
    {{if .PrimaryCTA}}<span class="cta">{{.PrimaryCTA}}</span>{{end}}
  </div>
  <div class="actions">
    <a class="approve" href="/api/actions/{{.Token}}/approve">Approve</a>
    <a class="edit" href="/api/actions/{{.Token}}/edit">Edit</a>
  </div>
</body>
</html>
`))

var fallbackTemplate = template.Must(template.New("fallback").Parse(`<!DOCTYPE html>
<html>
<head><title>Preview Unavailable</title></head>
<body style="font-family: sans-serif; padding: 40px; text-align: center;">
  <h1>Preview Unavailable</h1>
  <p>We couldn't render the proposed change preview for <strong>{{.ChecklistKey}}</strong>, but you can still approve or reply with edits.</p>
  <p style="margin-top: 32px;">
    <a href="/api/actions/{{.Token}}/approve" style="background: #16a34a; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Approve Anyway</a>
    <a href="/api/actions/{{.Token}}/edit" style="background: #ea580c; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block; margin-left: 12px;">Edit</a>
  </p>
</body>
</html>
`))

var expiredTemplate = template.Must(template.New("expired").Parse(`<!DOCTYPE html>
<html>
<head><title>Preview Expired</title></head>
<body style="font-family: sans-serif; padding: 40px; text-align: center;">
  <h1>Preview Expired</h1>
  <p>This preview link has expired. Please check your email for the latest action request.</p>
  <p style="color: #6b7280; font-size: 14px;">Expired on: {{.ExpiredAt}}</p>
</body>
</html>
`))

var notFoundTemplate = template.Must(template.New("notfound").Parse(`<!DOCTYPE html>
<html>
<head><title>Preview Not Found</title></head>
<body style="font-family: sans-serif; padding: 40px; text-align: center;">
  <h1>Preview Not Found</h1>
  <p>This preview link doesn't exist or has been removed.</p>
</body>
</html>
`))

type previewData struct {
	BusinessName string
	Tagline      string
	Services     []string
	Phone        string
	PrimaryCTA   string
	ChecklistKey string
	Token        string
}

/* RenderPreviewPage renders the overlaid intake with the proposal banner */
func RenderPreviewPage(overlaid *db.Intake, checklistKey, actionToken string) (string, error) {
	data := previewData{
		BusinessName: overlaid.BusinessName,
		Services:     overlaid.Services,
		ChecklistKey: checklistKey,
		Token:        actionToken,
	}
	if overlaid.Tagline != nil {
		data.Tagline = *overlaid.Tagline
	}
	if overlaid.Phone != nil {
		data.Phone = *overlaid.Phone
	}
	if overlaid.PrimaryCTA != nil {
		data.PrimaryCTA = *overlaid.PrimaryCTA
	}

	var buf bytes.Buffer
	if err := previewTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("preview template failed: %w", err)
	}
	return buf.String(), nil
}

/* RenderFallbackPage renders the page for unrenderable checklist keys */
func RenderFallbackPage(checklistKey, actionToken string) (string, error) {
	var buf bytes.Buffer
	err := fallbackTemplate.Execute(&buf, previewData{ChecklistKey: checklistKey, Token: actionToken})
	if err != nil {
		return "", fmt.Errorf("fallback template failed: %w", err)
	}
	return buf.String(), nil
}

/* RenderExpiredPage renders the terminal page for expired preview tokens */
func RenderExpiredPage(expiredAt time.Time) (string, error) {
	var buf bytes.Buffer
	err := expiredTemplate.Execute(&buf, struct{ ExpiredAt string }{ExpiredAt: expiredAt.Format(time.RFC1123)})
	if err != nil {
		return "", fmt.Errorf("expired template failed: %w", err)
	}
	return buf.String(), nil
}

/* RenderNotFoundPage renders the terminal page for unknown preview tokens */
func RenderNotFoundPage() (string, error) {
	var buf bytes.Buffer
	if err := notFoundTemplate.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("not-found template failed: %w", err)
	}
	return buf.String(), nil
}
