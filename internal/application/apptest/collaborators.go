package apptest

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Mailer records messages. FailFor makes Send fail for any message addressed to a matching recipient.
type Mailer struct {
	mu      sync.Mutex
	sent    []ports.MailMessage
	FailFor func(msg ports.MailMessage) error
}

func (m *Mailer) Send(_ context.Context, msg ports.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFor != nil {
		if err := m.FailFor(msg); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *Mailer) Sent() []ports.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.MailMessage(nil), m.sent...)
}

// FailRecipient returns a FailFor hook rejecting mail to addr.
func FailRecipient(addr string) func(ports.MailMessage) error {
	return func(msg ports.MailMessage) error {
		for _, to := range msg.To {
			if strings.EqualFold(to, addr) {
				return errors.New("smtp: 550 mailbox unavailable")
			}
		}
		return nil
	}
}

type Objects struct {
	mu    sync.Mutex
	blobs map[string][]byte
	// OpenErr fails every Open when set.
	OpenErr error
}

func (o *Objects) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) (ports.StoredObject, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return ports.StoredObject{}, err
	}
	o.mu.Lock()
	o.blobs[key] = raw
	o.mu.Unlock()
	return ports.StoredObject{Key: key, Size: int64(len(raw)), ContentType: contentType}, nil
}

func (o *Objects) Open(_ context.Context, key string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	raw, ok := o.blobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (o *Objects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	delete(o.blobs, key)
	o.mu.Unlock()
	return nil
}

func (o *Objects) URL(_ context.Context, key string) (string, error) {
	return "http://files.test/media/" + key, nil
}

func (o *Objects) Has(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.blobs[key]
	return ok
}

// Limiter counts calls per key and ignores the window.
type Limiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (l *Limiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

type Lockouts struct {
	mu    sync.Mutex
	state map[string]ports.LockoutState
}

func (l *Lockouts) Get(_ context.Context, key string) (ports.LockoutState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state[key], nil
}

func (l *Lockouts) RecordFailure(_ context.Context, key string, now time.Time, threshold int, window time.Duration) (ports.LockoutState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state[key]
	st.FailedCount++
	if st.FailedCount >= threshold {
		until := now.Add(window)
		st.LockedUntil = &until
	}
	l.state[key] = st
	return st, nil
}

func (l *Lockouts) Clear(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.state, key)
	l.mu.Unlock()
	return nil
}

type Revocations struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]bool
}

func (r *Revocations) MarkRevoked(_ context.Context, id uuid.UUID, _ time.Time) error {
	r.mu.Lock()
	r.revoked[id] = true
	r.mu.Unlock()
	return nil
}

func (r *Revocations) IsRevoked(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[id], nil
}

// Signer issues opaque tokens and remembers their claims.
type Signer struct {
	mu     sync.Mutex
	tokens map[string]ports.AuthClaims
	clock  *Clock
}

func (s *Signer) Sign(claims ports.AuthClaims) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "tok-" + uuid.NewString()
	claims.KeyID = "test"
	s.tokens[token] = claims
	return token, nil
}

func (s *Signer) ParseAndValidate(token string) (ports.AuthClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims, ok := s.tokens[token]
	if !ok {
		return ports.AuthClaims{}, errors.New("unknown token")
	}
	if !s.clock.Now().Before(claims.ExpiresAt) {
		return ports.AuthClaims{}, errors.New("token expired")
	}
	return claims, nil
}

func (s *Signer) PublicJWKs() ([]map[string]any, error) {
	return []map[string]any{{"kid": "test", "kty": "RSA"}}, nil
}

type Hasher struct{}

func (Hasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (Hasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// Secrets returns queued secrets first, then random ones.
type Secrets struct {
	mu     sync.Mutex
	queued []string
}

func (s *Secrets) Queue(secrets ...string) {
	s.mu.Lock()
	s.queued = append(s.queued, secrets...)
	s.mu.Unlock()
}

func (s *Secrets) NewSecret() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queued) > 0 {
		next := s.queued[0]
		s.queued = s.queued[1:]
		return next, nil
	}
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Metrics counts observations by "<flow>:<outcome>".
type Metrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *Metrics) inc(key string) {
	m.mu.Lock()
	m.counts[key]++
	m.mu.Unlock()
}

func (m *Metrics) ObserveIssuance(outcome string)   { m.inc("issuance:" + outcome) }
func (m *Metrics) ObserveRedemption(outcome string) { m.inc("redemption:" + outcome) }
func (m *Metrics) ObserveSubmission(kind, outcome string) {
	m.inc(kind + ":" + outcome)
}

func (m *Metrics) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

// Count reports how many objects are stored.
func (o *Objects) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.blobs)
}
