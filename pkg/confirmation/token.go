package confirmation

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

	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for malformed or tampered tokens.
	ErrInvalidToken = errors.New("invalid confirmation token")
	// ErrExpiredToken is returned once the token TTL has elapsed.
	ErrExpiredToken = errors.New("confirmation token expired")
)

// Claim is what a user confirmed: one bulk action over an exact number of courses.
type Claim struct {
	Nonce      string
	Action     string
	UnitNumber int
	Count      int
	UserID     string
	ExpiresAt  time.Time
}

// Signer creates and validates signed confirmation tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a signer with the provided secret and TTL.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for the claim. Nonce and expiry are filled in.
func (s *Signer) Issue(claim Claim) (string, Claim, error) {
	if claim.Action == "" || claim.UserID == "" {
		return "", Claim{}, fmt.Errorf("action and user required")
	}
	if len(s.secret) == 0 {
		return "", Claim{}, fmt.Errorf("signing secret missing")
	}
	claim.Nonce = uuid.NewString()
	claim.ExpiresAt = s.now().Add(s.ttl).Truncate(time.Second)

	parts := []string{
		claim.Nonce,
		claim.Action,
		strconv.Itoa(claim.UnitNumber),
		strconv.Itoa(claim.Count),
		base64.RawURLEncoding.EncodeToString([]byte(claim.UserID)),
		strconv.FormatInt(claim.ExpiresAt.Unix(), 10),
	}
	payload := strings.Join(parts, ".")
	return payload + "." + s.sign(payload), claim, nil
}

// Parse validates a token and returns the embedded claim.
func (s *Signer) Parse(token string) (Claim, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 7 {
		return Claim{}, ErrInvalidToken
	}
	payload := strings.Join(parts[:6], ".")
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[6])) {
		return Claim{}, ErrInvalidToken
	}

	unitNumber, err := strconv.Atoi(parts[2])
	if err != nil {
		return Claim{}, ErrInvalidToken
	}
	count, err := strconv.Atoi(parts[3])
	if err != nil {
		return Claim{}, ErrInvalidToken
	}
	rawUser, err := base64.RawURLEncoding.DecodeString(parts[4])
	if err != nil {
		return Claim{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(parts[5], 10, 64)
	if err != nil {
		return Claim{}, ErrInvalidToken
	}

	claim := Claim{
		Nonce:      parts[0],
		Action:     parts[1],
		UnitNumber: unitNumber,
		Count:      count,
		UserID:     string(rawUser),
		ExpiresAt:  time.Unix(expUnix, 0),
	}
	if s.now().After(claim.ExpiresAt) {
		return claim, ErrExpiredToken
	}
	return claim, nil
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
