/*-------------------------------------------------------------------------
 *
 * policy_test.go
 *    Tests for the safety policy table
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/actionrequests/policy_test.go
 *
 *-------------------------------------------------------------------------
 */

package actionrequests

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupRuleKnownKeys(t *testing.T) {
	rule, known := LookupRule("homepage.headline")
	assert.True(t, known)
	assert.Equal(t, CategoryContent, rule.Category)
	assert.Equal(t, 0.85, rule.AutoApplyThreshold)

	rule, known = LookupRule("contact.phone")
	assert.True(t, known)
	assert.Equal(t, CategoryContact, rule.Category)

	rule, known = LookupRule("gmb.category")
	assert.True(t, known)
	assert.Equal(t, CategoryMediumRisk, rule.Category)
}

func TestLookupRuleRestrictedPrefixes(t *testing.T) {
	for _, key := range []string{
		"billing.plan",
		"dns.records",
		"legal.terms",
		"integrations.stripe",
	} {
		rule, known := LookupRule(key)
		assert.True(t, known, "key %q", key)
		assert.Equal(t, CategoryRestricted, rule.Category, "key %q", key)
		assert.Equal(t, 1.0, rule.AutoApplyThreshold, "key %q", key)
	}
}

func TestLookupRuleUnknownKeyDefaults(t *testing.T) {
	rule, known := LookupRule("homepage.never_heard_of_it")
	assert.False(t, known)
	assert.Equal(t, CategoryContent, rule.Category)
	assert.Equal(t, 0.85, rule.AutoApplyThreshold)
}

func TestConfirmationFloorBelowThresholds(t *testing.T) {
	/* The confirmation window must sit strictly below every medium-risk
	 * threshold or the two-step path could never trigger */
	for key, rule := range checklistKeyRules {
		if rule.Category == CategoryMediumRisk {
			assert.Less(t, ConfirmationFloor, rule.AutoApplyThreshold, "key %q", key)
		}
	}
}
