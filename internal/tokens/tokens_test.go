package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignParse(t *testing.T) {
	s := NewSigner([]byte("secret"), time.Hour)

	tok, err := s.Sign("inv-token-1", ActionAccept)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := s.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "inv-token-1", claims.Invitation)
	require.Equal(t, ActionAccept, claims.Action)
}

func TestParse_WrongKey(t *testing.T) {
	tok, err := NewSigner([]byte("secret"), time.Hour).Sign("inv-token-1", ActionDecline)
	require.NoError(t, err)

	_, err = NewSigner([]byte("other"), time.Hour).Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	s := NewSigner([]byte("secret"), -time.Minute)

	tok, err := s.Sign("inv-token-1", ActionAccept)
	require.NoError(t, err)

	_, err = s.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	_, err := NewSigner([]byte("secret"), time.Hour).Parse("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
