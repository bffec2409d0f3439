package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	siwe "github.com/spruceid/siwe-go"

	"github.com/chaintalk/chaintalk/core"
	"github.com/chaintalk/chaintalk/ports"
)

// DefaultChallengeTTL is the absolute lifetime of an issued challenge.
const DefaultChallengeTTL = 300 * time.Second

const noncePrefix = "nonce:"

var addressPattern = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)

// ChainLookups bundles the pluggable on-chain lookups used for identity
// enrichment and the access policy. Resolvers may be stubbed; enrichment
// failures never fail a verification.
type ChainLookups struct {
	Names    ports.NameResolver
	Holdings ports.HoldingsReader
	Balances ports.BalanceReader
}

// AuthService verifies signed challenges and issues session tokens.
//
// Two schemes coexist on the same entry point: the structured sign-in
// statement binds domain, chain and issuance time, while the simple scheme
// trusts a bare nonce with no audience binding. Both are kept for client
// compatibility; consolidation onto the structured scheme is pending.
type AuthService struct {
	store     ports.Store
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher
	lookups   ChainLookups
	logger    *slog.Logger

	challengeTTL time.Duration

	cacheMu sync.RWMutex
	cache   map[string]core.Identity
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store ports.Store,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	lookups ChainLookups,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:        store,
		tokenizer:    tokenizer,
		eventPub:     eventPub,
		lookups:      lookups,
		logger:       logger,
		challengeTTL: DefaultChallengeTTL,
		cache:        make(map[string]core.Identity),
	}
}

// IssueChallenge generates a one-time challenge token with a 300 second
// expiry. Existence in the store is the sole validity signal.
func (s *AuthService) IssueChallenge(ctx context.Context) (string, error) {
	token := uuid.New().String()
	if err := s.store.Set(ctx, noncePrefix+token, "1", s.challengeTTL); err != nil {
		return "", err
	}
	return token, nil
}

// consumeChallenge takes the token out of the store. A token absent for any
// reason (expired, unknown, replayed) is an invalid nonce; store failures
// keep their own error surface.
func (s *AuthService) consumeChallenge(ctx context.Context, token string) error {
	ok, err := s.store.Take(ctx, noncePrefix+token)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrInvalidNonce
	}
	return nil
}

// VerifySIWE verifies a signed sign-in statement (structured scheme) and
// returns the enriched identity of the signer.
func (s *AuthService) VerifySIWE(ctx context.Context, message, signature string) (core.Identity, error) {
	msg, parseErr := siwe.ParseMessage(message)
	if parseErr != nil {
		// Retry once with every embedded address rewritten to checksum
		// form; some wallets emit lower-case addresses the grammar
		// rejects. The second failure surfaces the original error.
		msg, _ = siwe.ParseMessage(normalizeAddresses(message))
		if msg == nil {
			return core.Identity{}, fmt.Errorf("%w: parse sign-in message: %v", core.ErrInvalidSignature, parseErr)
		}
		s.logger.Debug("sign-in message parsed after address normalization")
	}

	if err := s.consumeChallenge(ctx, msg.GetNonce()); err != nil {
		return core.Identity{}, err
	}

	if _, err := msg.Verify(signature, nil, nil, nil); err != nil {
		return core.Identity{}, fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}

	identity := s.enrich(ctx, msg.GetAddress())
	s.CacheIdentity(identity)
	return identity, nil
}

// VerifySimple verifies a personal-sign signature over an arbitrary message
// against a claimed address, with the nonce supplied out of band.
func (s *AuthService) VerifySimple(ctx context.Context, address, message, signature, nonce string) (core.Identity, error) {
	if !common.IsHexAddress(address) {
		return core.Identity{}, fmt.Errorf("%w: malformed address %q", core.ErrInvalidRequest, address)
	}

	if err := s.consumeChallenge(ctx, nonce); err != nil {
		return core.Identity{}, err
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: decode signature: %v", core.ErrInvalidSignature, err)
	}
	if len(sig) != 65 {
		return core.Identity{}, fmt.Errorf("%w: signature must be 65 bytes", core.ErrInvalidSignature)
	}
	// Wallets emit V as 27/28; recovery wants 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: recover signer: %v", core.ErrInvalidSignature, err)
	}

	recovered := crypto.PubkeyToAddress(*pub)
	claimed := common.HexToAddress(address)
	if !strings.EqualFold(recovered.Hex(), claimed.Hex()) {
		return core.Identity{}, fmt.Errorf("%w: signer %s does not match %s",
			core.ErrInvalidSignature, recovered.Hex(), claimed.Hex())
	}

	identity := s.enrich(ctx, recovered)
	s.CacheIdentity(identity)
	return identity, nil
}

// enrich attaches best-effort lookups to a verified address. Lookup
// failures record "unknown", never an error.
func (s *AuthService) enrich(ctx context.Context, address common.Address) core.Identity {
	identity := core.Identity{Address: address.Hex()}

	if s.lookups.Names != nil {
		if name, err := s.lookups.Names.ResolveName(ctx, address); err == nil && name != "" {
			identity.ENSName = &name
		}
	}
	if s.lookups.Holdings != nil {
		if tokens, err := s.lookups.Holdings.TokenHoldings(ctx, address); err == nil {
			identity.TokenHoldings = tokens
		}
		if nfts, err := s.lookups.Holdings.NFTHoldings(ctx, address); err == nil {
			identity.NFTHoldings = nfts
		}
	}
	return identity
}

// IssueToken builds a signed session token for a verified identity.
func (s *AuthService) IssueToken(identity core.Identity) (string, error) {
	return s.tokenizer.IssueToken(identity)
}

// VerifyToken validates a session token's signature and expiry.
func (s *AuthService) VerifyToken(token string) (*ports.SessionClaims, error) {
	return s.tokenizer.VerifyToken(token)
}

// CheckAccessPolicy reports whether the user's balance of the given token
// contract meets the minimum, or exceeds zero when no minimum is given.
func (s *AuthService) CheckAccessPolicy(ctx context.Context, userAddress, contractAddress string, minimumBalance *string) (bool, error) {
	if !common.IsHexAddress(userAddress) {
		return false, fmt.Errorf("%w: malformed user address %q", core.ErrInvalidRequest, userAddress)
	}
	if !common.IsHexAddress(contractAddress) {
		return false, fmt.Errorf("%w: malformed contract address %q", core.ErrInvalidRequest, contractAddress)
	}
	if s.lookups.Balances == nil {
		return false, fmt.Errorf("%w: no balance reader configured", core.ErrBlockchain)
	}

	balance, err := s.lookups.Balances.BalanceOf(ctx, common.HexToAddress(contractAddress), common.HexToAddress(userAddress))
	if err != nil {
		return false, err
	}

	if minimumBalance != nil {
		minimum, ok := new(big.Int).SetString(*minimumBalance, 10)
		if !ok {
			return false, fmt.Errorf("%w: malformed minimum balance %q", core.ErrInvalidRequest, *minimumBalance)
		}
		return balance.Cmp(minimum) >= 0, nil
	}
	return balance.Sign() > 0, nil
}

// NotifyLogin publishes a login notification for other instances.
// Best-effort: failures are logged and swallowed.
func (s *AuthService) NotifyLogin(ctx context.Context, address string) {
	if s.eventPub == nil {
		return
	}
	if err := s.eventPub.PublishLogin(ctx, address); err != nil {
		s.logger.Warn("failed to publish login event", "addr", address, "err", err)
	}
}

// CacheIdentity records a verified identity for later lookup.
func (s *AuthService) CacheIdentity(identity core.Identity) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache[identity.Address] = identity
}

// CachedIdentity returns the cached identity for an address, if any. The
// lookup is case-insensitive; the cache is keyed by checksummed form.
func (s *AuthService) CachedIdentity(address string) (core.Identity, bool) {
	if common.IsHexAddress(address) {
		address = common.HexToAddress(address).Hex()
	}
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	identity, ok := s.cache[address]
	return identity, ok
}

// normalizeAddresses rewrites every 40-hex-digit address substring to its
// EIP-55 checksummed form.
func normalizeAddresses(message string) string {
	return addressPattern.ReplaceAllStringFunc(message, func(match string) string {
		return common.HexToAddress(match).Hex()
	})
}
