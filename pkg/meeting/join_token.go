package meeting

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JoinClaims is the payload carried by a signed join token.
type JoinClaims struct {
	SessionID   string `json:"session_id"`
	Room        string `json:"room"`
	DisplayName string `json:"display_name"`
	Moderator   bool   `json:"moderator"`
	jwt.RegisteredClaims
}

// JoinSigner creates and validates short-lived join tokens.
type JoinSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJoinSigner constructs a signer with the provided secret and TTL.
func NewJoinSigner(secret string, ttl time.Duration) *JoinSigner {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &JoinSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for the given claims and its expiry.
func (s *JoinSigner) Sign(claims JoinClaims) (string, time.Time, error) {
	if claims.SessionID == "" || claims.Room == "" {
		return "", time.Time{}, fmt.Errorf("session id and room required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.SessionID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign join token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates a join token and returns its claims.
func (s *JoinSigner) Parse(raw string) (*JoinClaims, error) {
	claims := &JoinClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse join token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid join token")
	}
	return claims, nil
}
