package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const generationPrefix = "gen:"

// GenerationTTL bounds how long a generation token is remembered. It must
// outlive every entry keyed on a token, or an expired token could come back
// as the initial one while old entries are still readable.
const GenerationTTL = 24 * time.Hour

// initialGeneration is reported for scopes that were never bumped.
const initialGeneration = "0"

// Generation returns the current token of scope. Readers build their keys on
// it, so a value computed before a BumpGeneration is written under a key no
// later reader asks for, even when that write lands after the bump.
func (c *Client) Generation(ctx context.Context, scope string) string {
	var token string
	if c.Get(ctx, generationPrefix+scope, &token) && token != "" {
		return token
	}
	return initialGeneration
}

// BumpGeneration retires every key built on the current token of scope.
func (c *Client) BumpGeneration(ctx context.Context, scope string) {
	c.Set(ctx, generationPrefix+scope, uuid.NewString(), GenerationTTL)
}
