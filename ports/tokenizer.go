package ports

import (
	"time"

	"github.com/chaintalk/chaintalk/core"
)

// SessionClaims are the validated contents of a session token.
type SessionClaims struct {
	Address   string
	ENSName   *string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Tokenizer issues and validates self-contained session tokens.
type Tokenizer interface {
	IssueToken(identity core.Identity) (string, error)
	VerifyToken(token string) (*SessionClaims, error)
}
