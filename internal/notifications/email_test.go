/*-------------------------------------------------------------------------
 *
 * email_test.go
 *    Tests for the email delivery gateway
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/notifications/email_test.go
 *
 *-------------------------------------------------------------------------
 */

package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyToAddress(t *testing.T) {
	addr := ReplyToAddress("noreply@getlaunchbase.com", "action_1719000000000_a1b2c3d4")
	assert.Equal(t, "approvals+action_1719000000000_a1b2c3d4@getlaunchbase.com", addr)
}

func TestReplyToAddressWithoutDomain(t *testing.T) {
	assert.Empty(t, ReplyToAddress("", "action_1_aa"))
	assert.Empty(t, ReplyToAddress("noreply", "action_1_aa"))
}

func TestTagSubject(t *testing.T) {
	subject := TagSubject("Approve: Approve your homepage headline", "action_1_aa")
	assert.Equal(t, "Approve: Approve your homepage headline [LB:action_1_aa]", subject)
}

func TestIsEnabled(t *testing.T) {
	configured := NewEmailService("smtp.getlaunchbase.com", 587, "user", "pass", "noreply@getlaunchbase.com", "http://localhost:8080")
	assert.True(t, configured.IsEnabled())

	unconfigured := NewEmailService("", 0, "", "", "", "http://localhost:8080")
	assert.False(t, unconfigured.IsEnabled())
}

func TestUnconfiguredServiceReportsFailure(t *testing.T) {
	svc := NewEmailService("", 0, "", "", "", "http://localhost:8080")
	result := svc.SendActionRequest(context.Background(), ActionRequestMessage{
		To:    "owner@acme.test",
		Token: "action_1_aa",
	})
	assert.False(t, result.Success)
	assert.Equal(t, "smtp", result.Provider)
	assert.NotEmpty(t, result.Error)
}
