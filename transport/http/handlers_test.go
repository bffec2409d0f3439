package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/chaintalk/chaintalk/adapters/store"
	"github.com/chaintalk/chaintalk/adapters/tokenizer"
	"github.com/chaintalk/chaintalk/core"
	"github.com/chaintalk/chaintalk/registry"
	"github.com/chaintalk/chaintalk/service"
)

const userAddr = "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"

type fixedBalances struct{ balance *big.Int }

func (b fixedBalances) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	return b.balance, nil
}

type testServer struct {
	engine *gin.Engine
	svc    *service.AuthService
	reg    *registry.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.NewRegistry("")
	router := registry.NewRouter(reg, nil)
	svc := service.NewAuthService(
		store.NewMemoryStore(),
		tokenizer.NewJWTTokenizer([]byte("test-secret")),
		nil,
		service.ChainLookups{Balances: fixedBalances{balance: big.NewInt(100)}},
		logger,
	)

	engine := SetupRouter(RouterDeps{
		Auth:     svc,
		Registry: reg,
		Router:   router,
		Logger:   logger,
	})
	return &testServer{engine: engine, svc: svc, reg: reg}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w, body := srv.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", body["status"])
}

func TestNonceEndpoint(t *testing.T) {
	srv := newTestServer(t)
	w, body := srv.do(t, http.MethodPost, "/api/auth/nonce", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, body["nonce"])
}

func TestLoginRejectsBadPayload(t *testing.T) {
	srv := newTestServer(t)

	w, _ := srv.do(t, http.MethodPost, "/api/auth/login", map[string]string{"message": "only"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"message": "garbage", "signature": "0x00"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserInfo(t *testing.T) {
	srv := newTestServer(t)

	w, _ := srv.do(t, http.MethodGet, "/api/user/"+userAddr, nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	ens := "alice.eth"
	srv.svc.CacheIdentity(core.Identity{Address: userAddr, ENSName: &ens})

	w, body := srv.do(t, http.MethodGet, "/api/user/"+userAddr, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, userAddr, body["address"])
	require.Equal(t, "alice.eth", body["ens_name"])
}

func TestRoomListing(t *testing.T) {
	srv := newTestServer(t)
	srv.reg.AddSession(userAddr, nil)
	require.True(t, srv.reg.JoinRoom(userAddr, "trading"))

	w, body := srv.do(t, http.MethodGet, "/api/rooms", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	rooms := body["rooms"].([]any)
	require.Len(t, rooms, 2)
	first := rooms[0].(map[string]any)
	require.Equal(t, "general", first["name"])
	require.Equal(t, float64(0), first["user_count"])

	w, body = srv.do(t, http.MethodGet, "/api/rooms/trading", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "trading", body["name"])
	require.Equal(t, float64(1), body["user_count"])
	require.Equal(t, []any{userAddr}, body["users"])
}

func TestTokenGateVerify(t *testing.T) {
	srv := newTestServer(t)

	w, body := srv.do(t, http.MethodPost, "/api/token-gate/verify", map[string]any{
		"user_address":     userAddr,
		"contract_address": "0xCBCdF9626bC03E24f779434178A73a0B4bad62eD",
		"minimum_balance":  "50",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["has_access"])

	w, body = srv.do(t, http.MethodPost, "/api/token-gate/verify", map[string]any{
		"user_address":     userAddr,
		"contract_address": "0xCBCdF9626bC03E24f779434178A73a0B4bad62eD",
		"minimum_balance":  "500",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, body["has_access"])

	w, _ = srv.do(t, http.MethodPost, "/api/token-gate/verify", map[string]any{
		"user_address":     "bogus",
		"contract_address": "0xCBCdF9626bC03E24f779434178A73a0B4bad62eD",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeRequiresBearerToken(t *testing.T) {
	srv := newTestServer(t)

	w, _ := srv.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = srv.do(t, http.MethodGet, "/api/me", nil, map[string]string{"Authorization": "Bearer garbage"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := srv.svc.IssueToken(core.Identity{Address: userAddr})
	require.NoError(t, err)

	w, body := srv.do(t, http.MethodGet, "/api/me", nil, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, userAddr, body["address"])
}

func TestStatusForTaxonomy(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, statusFor(core.ErrAuthenticationFailed))
	require.Equal(t, http.StatusUnauthorized, statusFor(core.ErrInvalidSignature))
	require.Equal(t, http.StatusUnauthorized, statusFor(core.ErrInvalidNonce))
	require.Equal(t, http.StatusForbidden, statusFor(core.ErrAuthorizationFailed))
	require.Equal(t, http.StatusBadRequest, statusFor(core.ErrInvalidRequest))
	require.Equal(t, http.StatusBadRequest, statusFor(core.ErrSerialization))
	require.Equal(t, http.StatusInternalServerError, statusFor(core.ErrDatabase))
	require.Equal(t, http.StatusInternalServerError, statusFor(core.ErrBlockchain))
}
