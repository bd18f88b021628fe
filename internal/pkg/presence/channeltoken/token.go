package channeltoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// Channel tokens are short-lived HMAC-signed grants binding a socket id to a
// channel name plus, for presence channels, the member metadata the hub will
// announce to other subscribers. The client treats them as opaque.

var (
	ErrInvalidToken  = errors.New("channeltoken: invalid token")
	ErrTokenMismatch = errors.New("channeltoken: token does not match socket/channel")
)

const DefaultTTL = 2 * time.Minute

// Claims is the signed grant payload.
type Claims struct {
	Channel  string           `json:"chan"`
	SocketID string           `json:"sid"`
	Member   *presence.Member `json:"member,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies channel grants with a shared HMAC secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret []byte, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{secret: secret, ttl: ttl, now: time.Now}
}

// Sign issues a grant for socketID to join channel. member is nil for private
// channels; presence channels carry the metadata snapshot.
func (s *Signer) Sign(socketID, channel string, member *presence.Member) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("channeltoken: empty secret")
	}
	now := s.now().UTC()
	claims := Claims{
		Channel:  channel,
		SocketID: socketID,
		Member:   member,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify validates the signature and expiry, then checks the grant is for this
// exact socket and channel.
func (s *Signer) Verify(token, socketID, channel string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SocketID != socketID || claims.Channel != channel {
		return nil, ErrTokenMismatch
	}
	return &claims, nil
}
