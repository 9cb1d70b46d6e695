/*-------------------------------------------------------------------------
 *
 * tokens_test.go
 *    Tests for token generation
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/actionrequests/tokens_test.go
 *
 *-------------------------------------------------------------------------
 */

package actionrequests

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var tokenPattern = regexp.MustCompile(`^(action|preview)_\d+_[0-9a-f]{16}$`)

func TestTokenFormat(t *testing.T) {
	assert.Regexp(t, tokenPattern, NewActionToken())
	assert.Regexp(t, tokenPattern, NewPreviewToken())
}

func TestTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := NewActionToken()
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}
}
