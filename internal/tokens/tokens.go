package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

var ErrInvalidToken = errors.New("invalid response token")

type ResponseClaims struct {
	Invitation string `json:"inv"`
	Action     string `json:"act"`
	jwt.RegisteredClaims
}

// Signer issues and verifies the signed tokens embedded in the accept
// and decline links of an invitation email.
type Signer struct {
	key    []byte
	maxAge time.Duration
}

func NewSigner(key []byte, maxAge time.Duration) *Signer {
	return &Signer{key: key, maxAge: maxAge}
}

func (s *Signer) Sign(invitationToken, action string) (string, error) {
	claims := &ResponseClaims{
		Invitation: invitationToken,
		Action:     action,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "benchline",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.maxAge)),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

func (s *Signer) Parse(token string) (*ResponseClaims, error) {
	claims := new(ResponseClaims)

	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}

		return s.key, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	if !t.Valid || claims.Invitation == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
