package notify

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
)

// TokenService mints and verifies the signed, self-contained credentials used
// for unsubscribe and view-in-browser links. Tokens embed the recipient email
// and expire after Config.UnsubTokenTTL (30 days by default).
type TokenService struct {
	secret  []byte
	ttl     time.Duration
	NowFunc func() time.Time // mockable
}

type unsubClaims struct {
	Email string `json:"email"`
	jwt.StandardClaims
}

func NewTokenService(conf *core.Config) *TokenService {
	// conf.SecretKey length is enforced at config load; a short secret never
	// gets this far.
	return &TokenService{
		secret:  []byte(conf.SecretKey),
		ttl:     conf.UnsubTokenTTL,
		NowFunc: time.Now,
	}
}

// Sign produces a compact signed token binding the given email.
func (ts *TokenService) Sign(email string) (string, error) {
	now := ts.NowFunc()
	claims := unsubClaims{
		Email: core.CleanString(email, true),
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ts.ttl).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	return token, errors.Wrap(err, "signing token")
}

// Verify returns the embedded email and true for a well-formed, unexpired,
// untampered token; ("", false) otherwise. It never returns an error: callers
// must not be able to distinguish why verification failed.
func (ts *TokenService) Verify(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	claims := new(unsubClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Email == "" {
		return "", false
	}
	return claims.Email, true
}
