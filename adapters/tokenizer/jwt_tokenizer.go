package tokenizer

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chaintalk/chaintalk/core"
	"github.com/chaintalk/chaintalk/ports"
)

// DefaultSessionTTL is the lifetime of an issued session token.
const DefaultSessionTTL = 24 * time.Hour

// JWTTokenizer implements the Tokenizer interface with HS256 tokens signed
// by a server-held secret. Tokens are self-contained and never persisted.
type JWTTokenizer struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTTokenizer creates a new JWT tokenizer.
func NewJWTTokenizer(secret []byte) *JWTTokenizer {
	return &JWTTokenizer{secret: secret, ttl: DefaultSessionTTL}
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// IssueToken builds a signed session token for a verified identity.
func (j *JWTTokenizer) IssueToken(identity core.Identity) (string, error) {
	now := time.Now()
	claims := SessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		ENS: identity.ENSName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %v", core.ErrInternal, err)
	}
	return signed, nil
}

// VerifyToken validates signature and expiry; any failure surfaces as an
// authentication failure.
func (j *JWTTokenizer) VerifyToken(tokenStr string) (*ports.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAuthenticationFailed, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", core.ErrAuthenticationFailed)
	}

	claims, ok := token.Claims.(*SessionTokenClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims type", core.ErrAuthenticationFailed)
	}

	return &ports.SessionClaims{
		Address:   claims.Subject,
		ENSName:   claims.ENS,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
