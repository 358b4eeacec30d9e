package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewCodec_KeyLength(t *testing.T) {
	_, err := NewCodec([]byte("too short"), time.Hour)
	assert.Error(t, err)

	_, err = NewCodec(testKey, time.Hour)
	assert.NoError(t, err)
}

func TestCodec_IssueAndRedeem(t *testing.T) {
	codec, err := NewCodec(testKey, time.Hour)
	require.NoError(t, err)

	userID := uuid.New()
	tokenStr, err := codec.Issue(userID)
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	got, err := codec.Redeem(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestCodec_Redeem_Expired(t *testing.T) {
	codec, err := NewCodec(testKey, -time.Minute)
	require.NoError(t, err)

	tokenStr, err := codec.Issue(uuid.New())
	require.NoError(t, err)

	_, err = codec.Redeem(tokenStr)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodec_Redeem_Garbage(t *testing.T) {
	codec, err := NewCodec(testKey, time.Hour)
	require.NoError(t, err)

	_, err = codec.Redeem("not a token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCodec_Redeem_WrongKey(t *testing.T) {
	codec, err := NewCodec(testKey, time.Hour)
	require.NoError(t, err)

	other, err := NewCodec([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	require.NoError(t, err)

	tokenStr, err := codec.Issue(uuid.New())
	require.NoError(t, err)

	_, err = other.Redeem(tokenStr)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
