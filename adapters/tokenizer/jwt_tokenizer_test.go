package tokenizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chaintalk/chaintalk/core"
)

const testAddr = "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"

func TestTokenRoundTrip(t *testing.T) {
	tk := NewJWTTokenizer([]byte("secret"))
	ens := "alice.eth"

	token, err := tk.IssueToken(core.Identity{Address: testAddr, ENSName: &ens})
	require.NoError(t, err)

	claims, err := tk.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, testAddr, claims.Address)
	require.Equal(t, "alice.eth", *claims.ENSName)
	require.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
	require.WithinDuration(t, time.Now().Add(DefaultSessionTTL), claims.ExpiresAt, 5*time.Second)
}

func TestTokenWithoutENS(t *testing.T) {
	tk := NewJWTTokenizer([]byte("secret"))

	token, err := tk.IssueToken(core.Identity{Address: testAddr})
	require.NoError(t, err)

	claims, err := tk.VerifyToken(token)
	require.NoError(t, err)
	require.Nil(t, claims.ENSName)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewJWTTokenizer([]byte("secret-a")).IssueToken(core.Identity{Address: testAddr})
	require.NoError(t, err)

	_, err = NewJWTTokenizer([]byte("secret-b")).VerifyToken(token)
	require.ErrorIs(t, err, core.ErrAuthenticationFailed)
}

func TestExpiredToken(t *testing.T) {
	tk := NewJWTTokenizer([]byte("secret"))
	tk.ttl = -time.Minute

	token, err := tk.IssueToken(core.Identity{Address: testAddr})
	require.NoError(t, err)

	_, err = tk.VerifyToken(token)
	require.ErrorIs(t, err, core.ErrAuthenticationFailed)
}

func TestGarbageToken(t *testing.T) {
	_, err := NewJWTTokenizer([]byte("secret")).VerifyToken("not.a.token")
	require.ErrorIs(t, err, core.ErrAuthenticationFailed)
}
