package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionTokenClaims combines the registered claims with the optional ENS
// display name carried by session tokens.
type SessionTokenClaims struct {
	jwt.RegisteredClaims
	ENS *string `json:"ens,omitempty"`
}
