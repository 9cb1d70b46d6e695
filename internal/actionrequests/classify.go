/*-------------------------------------------------------------------------
 *
 * classify.go
 *    Intent classification for customer replies
 *
 * Pure, deterministic keyword classifier. Rules are priority-ordered
 * and the first match wins; every classification carries the rule
 * number that produced it so automated decisions stay explainable.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/actionrequests/classify.go
 *
 *-------------------------------------------------------------------------
 */

package actionrequests

import (
	"regexp"
	"strings"
)

/* Intent is the classified meaning of a customer reply */
type Intent string

const (
	IntentApprove       Intent = "APPROVE"        /* accepting exactly what was proposed */
	IntentReject        Intent = "REJECT"         /* says no without a replacement */
	IntentEditExact     Intent = "EDIT_EXACT"     /* concrete replacement value provided */
	IntentEditAmbiguous Intent = "EDIT_AMBIGUOUS" /* change requested but underspecified */
	IntentNewRequest    Intent = "NEW_REQUEST"    /* scope change, out of bounds */
)

/* Classification is the result of classifying one reply */
type Classification struct {
	Intent         Intent
	Confidence     float64
	ExtractedValue interface{}
	/* Rule is the 1-based classifier rule that matched */
	Rule int
}

var approvalKeywords = []string{"yes", "y", "approve", "approved", "looks good", "ok", "okay", "perfect", "great", "good"}

var rejectKeywords = []string{"no", "n", "nope", "reject", "rejected", "wrong", "incorrect", "bad"}

var scopeExpansionKeywords = []string{"also", "add", "new page", "redesign", "change everything"}

var ambiguousKeywords = []string{"better", "more professional", "fix", "improve", "nicer", "maybe", "kinda", "sorta", "i think"}

var (
	phonePattern = regexp.MustCompile(`\d{3}[-.]?\d{3}[-.]?\d{4}`)
	urlPattern   = regexp.MustCompile(`https?://`)
)

/* Reply length bounds for the exact-edit rule; outside them the reply
 * is treated as unclear. */
const (
	minExactReplyLen = 5
	maxExactReplyLen = 500
)

/* Classify maps a free-text reply plus the proposed value to an intent
 * with a confidence score. Pure function: no I/O, no side effects. */
func Classify(replyText string, proposedValue interface{}) Classification {
	text := strings.ToLower(strings.TrimSpace(replyText))

	/* Rule 1: explicit approval keywords */
	if matchesKeywordBoundary(text, approvalKeywords) {
		return Classification{Intent: IntentApprove, Confidence: 0.95, Rule: 1}
	}

	/* Rule 2: explicit rejection without replacement */
	if matchesKeywordBoundary(text, rejectKeywords) {
		return Classification{Intent: IntentReject, Confidence: 0.90, Rule: 2}
	}

	/* Rule 3: scope expansion signals; these never auto-apply */
	for _, kw := range scopeExpansionKeywords {
		if strings.Contains(text, kw) {
			return Classification{Intent: IntentNewRequest, Confidence: 0.85, Rule: 3}
		}
	}

	/* Rule 4: vague change requests */
	for _, kw := range ambiguousKeywords {
		if strings.Contains(text, kw) {
			return Classification{Intent: IntentEditAmbiguous, Confidence: 0.60, Rule: 4}
		}
	}

	/* Rule 5: plausible concrete replacement */
	if len(text) > minExactReplyLen && len(text) < maxExactReplyLen {
		hasPhone := phonePattern.MatchString(text)
		hasURL := urlPattern.MatchString(text)
		hasEmail := strings.Contains(text, "@")
		hasQuotes := strings.Contains(text, `"`) || strings.Contains(text, "'")

		if hasPhone || hasURL || hasEmail || hasQuotes {
			return Classification{Intent: IntentEditExact, Confidence: 0.90, ExtractedValue: strings.TrimSpace(replyText), Rule: 5}
		}

		/* Otherwise assume a literal free-text replacement */
		return Classification{Intent: IntentEditExact, Confidence: 0.75, ExtractedValue: strings.TrimSpace(replyText), Rule: 5}
	}

	/* Rule 6: too short or too long to act on */
	return Classification{Intent: IntentEditAmbiguous, Confidence: 0.40, Rule: 6}
}

/* matchesKeywordBoundary reports whether the text equals, starts with,
 * or ends with one of the keywords at a word boundary. Substring hits
 * inside words ("no" in "nothing") must not match. */
func matchesKeywordBoundary(text string, keywords []string) bool {
	for _, kw := range keywords {
		if text == kw || strings.HasPrefix(text, kw+" ") || strings.HasSuffix(text, " "+kw) {
			return true
		}
	}
	return false
}
