// Package handoff seals opaque payloads into tamper-evident, expiring tokens.
package handoff

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token parsing failures. Callers that tolerate bad tokens only need errors.Is(err, ErrInvalidToken).
var (
	ErrInvalidToken = errors.New("invalid handoff token")
	ErrExpiredToken = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrBadSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
)

// Signer creates and validates signed handoff tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a signer with the provided secret and TTL.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Seal encodes payload as "<base64url payload>.<unix expiry>.<hex hmac>".
func (s *Signer) Seal(payload []byte) (string, time.Time, error) {
	if len(payload) == 0 {
		return "", time.Time{}, fmt.Errorf("payload required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	return strings.Join([]string{encoded, ts, s.sign(encoded, ts)}, "."), expiresAt, nil
}

// Open verifies the token and returns the sealed payload.
func (s *Signer) Open(token string) ([]byte, time.Time, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return nil, time.Time{}, fmt.Errorf("%w: malformed", ErrInvalidToken)
	}
	encoded, ts, signature := parts[0], parts[1], parts[2]

	if !hmac.Equal([]byte(s.sign(encoded, ts)), []byte(signature)) {
		return nil, time.Time{}, ErrBadSignature
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: timestamp", ErrInvalidToken)
	}
	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return nil, time.Time{}, ErrExpiredToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: payload encoding", ErrInvalidToken)
	}
	return payload, expiresAt, nil
}

func (s *Signer) sign(encoded, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encoded + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
