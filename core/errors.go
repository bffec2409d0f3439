package core

import "errors"

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAuthorizationFailed  = errors.New("authorization failed")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrInvalidNonce         = errors.New("invalid nonce")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrDatabase             = errors.New("database error")
	ErrBlockchain           = errors.New("blockchain error")
	ErrSerialization        = errors.New("serialization error")
	ErrInternal             = errors.New("internal server error")
)
