/*-------------------------------------------------------------------------
 *
 * webhook_handlers_test.go
 *    Tests for inbound email token extraction and reply trimming
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/api/webhook_handlers_test.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"testing"

	"github.com/launchbase/actionrequests/internal/actionrequests"
	"github.com/launchbase/actionrequests/internal/notifications"
	"github.com/stretchr/testify/assert"
)

func TestExtractTokenFromPlusAddress(t *testing.T) {
	token := extractToken("approvals+action_1719000000000_a1b2c3d4@getlaunchbase.com", "Re: anything")
	assert.Equal(t, "action_1719000000000_a1b2c3d4", token)
}

func TestExtractTokenFromSubjectTag(t *testing.T) {
	token := extractToken("support@getlaunchbase.com", "Re: Approve your headline [LB:action_1719000000000_a1b2c3d4]")
	assert.Equal(t, "action_1719000000000_a1b2c3d4", token)
}

func TestExtractTokenPrefersAddress(t *testing.T) {
	token := extractToken(
		"approvals+action_111_aa@getlaunchbase.com",
		"[LB:action_222_bb]",
	)
	assert.Equal(t, "action_111_aa", token)
}

func TestExtractTokenMissing(t *testing.T) {
	assert.Empty(t, extractToken("support@getlaunchbase.com", "Re: hello"))
}

/* A customer reply to the engine's own question email arrives addressed
 * to the outbound reply-to with the outbound subject under a Re: prefix.
 * Both must resolve back to the token on their own. */
func TestExtractTokenFromOutboundHeaders(t *testing.T) {
	token := actionrequests.NewActionToken()
	replyTo := notifications.ReplyToAddress("noreply@getlaunchbase.com", token)
	subject := "Re: " + notifications.TagSubject("Approve: Approve your homepage headline", token)

	assert.Equal(t, token, extractToken(replyTo, subject))
	assert.Equal(t, token, extractToken(replyTo, "Re: Approve: Approve your homepage headline"))
	assert.Equal(t, token, extractToken("noreply@getlaunchbase.com", subject))
}

func TestStripQuotedRepliesOnWrote(t *testing.T) {
	text := "Yes, looks good!\n\nOn Mon, Jun 1, 2026 at 9:00 AM LaunchBase <approvals@getlaunchbase.com> wrote:\n> Approve your homepage headline\n> Acme Rooter - Trusted Plumber"
	assert.Equal(t, "Yes, looks good!", stripQuotedReplies(text))
}

func TestStripQuotedRepliesAngleQuotes(t *testing.T) {
	text := "Use 555-987-6543 instead\n> old proposal\n> more quoted text"
	assert.Equal(t, "Use 555-987-6543 instead", stripQuotedReplies(text))
}

func TestStripQuotedRepliesOutlookMarker(t *testing.T) {
	text := "no\n-----Original Message-----\nFrom: LaunchBase"
	assert.Equal(t, "no", stripQuotedReplies(text))

	text = "approved\n________________________________\nFrom: LaunchBase"
	assert.Equal(t, "approved", stripQuotedReplies(text))
}

func TestStripQuotedRepliesNoQuotes(t *testing.T) {
	text := "Make it say Acme Drain Masters"
	assert.Equal(t, text, stripQuotedReplies(text))
}

func TestStripQuotedRepliesMultilineReply(t *testing.T) {
	text := "Two things:\nuse the new phone number\n\nOn Tue wrote:\n> quoted"
	assert.Equal(t, "Two things:\nuse the new phone number", stripQuotedReplies(text))
}
