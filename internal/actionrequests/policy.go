/*-------------------------------------------------------------------------
 *
 * policy.go
 *    Safety policy table for checklist keys
 *
 * Static mapping from checklist key to risk category and auto-apply
 * threshold. This table is the single source of truth for risk
 * tolerance and is consulted before every apply. It is intentionally
 * data, not logic, so the risk policy can be audited independently of
 * the classifier.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/actionrequests/policy.go
 *
 *-------------------------------------------------------------------------
 */

package actionrequests

import "strings"

/* Category is the risk class of a checklist key */
type Category string

const (
	CategoryContent    Category = "content"     /* headlines, copy, taglines */
	CategoryContact    Category = "contact"     /* phone, email, booking link, CTA */
	CategoryProfile    Category = "profile"     /* audience, category */
	CategoryMediumRisk Category = "medium_risk" /* hours, service area, GMB category, branding */
	CategoryRestricted Category = "restricted"  /* billing, DNS, legal, integrations */
)

/* Rule pairs a category with its auto-apply threshold */
type Rule struct {
	Category           Category
	AutoApplyThreshold float64
}

/* ConfirmationFloor is the lower confidence bound of the medium-risk
 * two-step confirmation window (0.70..threshold). */
const ConfirmationFloor = 0.70

/* defaultRule is applied to checklist keys with no explicit entry.
 * A novel key therefore auto-applies like content at 0.85; callers log
 * the unknown-key lookup so operators can classify it. */
var defaultRule = Rule{Category: CategoryContent, AutoApplyThreshold: 0.85}

var checklistKeyRules = map[string]Rule{
	/* Content (auto-apply at 0.85+) */
	"homepage.headline":    {Category: CategoryContent, AutoApplyThreshold: 0.85},
	"homepage.subheadline": {Category: CategoryContent, AutoApplyThreshold: 0.85},
	"homepage.tagline":     {Category: CategoryContent, AutoApplyThreshold: 0.85},
	"homepage.services":    {Category: CategoryContent, AutoApplyThreshold: 0.85},
	"homepage.about":       {Category: CategoryContent, AutoApplyThreshold: 0.85},

	/* Contact (auto-apply at 0.85+) */
	"contact.phone":        {Category: CategoryContact, AutoApplyThreshold: 0.85},
	"contact.email":        {Category: CategoryContact, AutoApplyThreshold: 0.85},
	"contact.booking_link": {Category: CategoryContact, AutoApplyThreshold: 0.85},
	"cta.primary":          {Category: CategoryContact, AutoApplyThreshold: 0.85},

	/* Profile (auto-apply at 0.85+) */
	"profile.audience": {Category: CategoryProfile, AutoApplyThreshold: 0.85},
	"profile.category": {Category: CategoryProfile, AutoApplyThreshold: 0.85},

	/* Medium risk (two-step confirmation at 0.70-0.84) */
	"hours.schedule":    {Category: CategoryMediumRisk, AutoApplyThreshold: 0.85},
	"service_area.zips": {Category: CategoryMediumRisk, AutoApplyThreshold: 0.85},
	"gmb.category":      {Category: CategoryMediumRisk, AutoApplyThreshold: 0.85},
	"branding.logo":     {Category: CategoryMediumRisk, AutoApplyThreshold: 0.85},
	"branding.colors":   {Category: CategoryMediumRisk, AutoApplyThreshold: 0.85},
}

/* Restricted prefixes never auto-apply regardless of confidence */
var restrictedPrefixes = []string{"billing.", "dns.", "legal.", "integrations."}

/* LookupRule returns the safety rule for a checklist key. The second
 * return reports whether the key was explicitly classified; unknown
 * keys fall back to the content default. */
func LookupRule(checklistKey string) (Rule, bool) {
	for _, prefix := range restrictedPrefixes {
		if strings.HasPrefix(checklistKey, prefix) {
			return Rule{Category: CategoryRestricted, AutoApplyThreshold: 1.0}, true
		}
	}
	if rule, ok := checklistKeyRules[checklistKey]; ok {
		return rule, true
	}
	return defaultRule, false
}
