package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewTokenCodec_Validation(t *testing.T) {
	_, err := NewTokenCodec("", time.Minute)
	assert.Error(t, err)

	_, err = NewTokenCodec(testSecret, 0)
	assert.Error(t, err)

	codec, err := NewTokenCodec(testSecret, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, codec.TTL())
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, 30*time.Minute)
	require.NoError(t, err)

	token, err := codec.Issue("ash")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "ash", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenCodec_UniqueTokens(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Minute, WithClock(fixedClock(time.Now())))
	require.NoError(t, err)

	first, err := codec.Issue("ash")
	require.NoError(t, err)
	second, err := codec.Issue("ash")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestTokenCodec_Expired(t *testing.T) {
	issuedAt := time.Now()
	issuer, err := NewTokenCodec(testSecret, time.Minute, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)

	token, err := issuer.Issue("ash")
	require.NoError(t, err)

	later, err := NewTokenCodec(testSecret, time.Minute, WithClock(fixedClock(issuedAt.Add(2*time.Minute))))
	require.NoError(t, err)

	_, err = later.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotErrorIs(t, err, ErrTokenSignature)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	issuer, err := NewTokenCodec("right-secret", time.Minute)
	require.NoError(t, err)
	verifier, err := NewTokenCodec("wrong-secret", time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue("ash")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, ErrTokenSignature)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_SignatureCheckedBeforeExpiry(t *testing.T) {
	issuedAt := time.Now()
	issuer, err := NewTokenCodec("right-secret", time.Minute, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)
	token, err := issuer.Issue("ash")
	require.NoError(t, err)

	verifier, err := NewTokenCodec("wrong-secret", time.Minute, WithClock(fixedClock(issuedAt.Add(time.Hour))))
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestTokenCodec_SingleCharacterMutation(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Minute)
	require.NoError(t, err)

	token, err := codec.Issue("ash")
	require.NoError(t, err)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		replacement := alphabet[(strings.IndexByte(alphabet, token[i])+1)%len(alphabet)]
		mutated := token[:i] + string(replacement) + token[i+1:]

		_, err := codec.Parse(mutated)
		assert.ErrorIs(t, err, ErrInvalidToken, "mutation at %d accepted", i)
	}
}

func TestTokenCodec_Malformed(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Minute)
	require.NoError(t, err)

	for _, token := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := codec.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Minute)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Subject:   "ash",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = codec.Parse(hs512)
	assert.ErrorIs(t, err, ErrTokenSignature)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_MissingClaims(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Minute)
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = codec.Parse(noSub)
	assert.ErrorIs(t, err, ErrTokenSubject)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "ash",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = codec.Parse(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = codec.Issue("")
	assert.ErrorIs(t, err, ErrTokenSubject)
}
