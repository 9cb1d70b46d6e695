/*-------------------------------------------------------------------------
 *
 * tokens.go
 *    Opaque token generation for email links
 *
 * Approval tokens authorize acting on exactly one action request.
 * Preview tokens are a separate, shorter-lived, read-only credential
 * and never authorize mutation.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/actionrequests/tokens.go
 *
 *-------------------------------------------------------------------------
 */

package actionrequests

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

/* Token lifetimes */
const (
	actionTokenTTL  = 7 * 24 * time.Hour
	previewTokenTTL = 72 * time.Hour
)

/* NewActionToken generates an unguessable single-purpose approval token */
func NewActionToken() string {
	return newToken("action")
}

/* NewPreviewToken generates an unguessable read-only preview token */
func NewPreviewToken() string {
	return newToken("preview")
}

func newToken(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		/* crypto/rand failure means the process has no usable entropy
		 * source; refusing to mint tokens is the only safe option. */
		panic(fmt.Sprintf("token generation failed: %v", err))
	}
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(buf))
}
