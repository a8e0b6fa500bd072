// Package apptest provides in-memory implementations of the application ports
// and a ready-wired Service for tests of the application and its adapters.
package apptest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

type Tokens struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]domain.DownloadToken
	byHash map[string]uuid.UUID
	// CreateErr fails every Create when set.
	CreateErr error
	// DeleteErr fails every Delete when set.
	DeleteErr error
}

func NewTokens() *Tokens {
	return &Tokens{byID: map[uuid.UUID]domain.DownloadToken{}, byHash: map[string]uuid.UUID{}}
}

func (s *Tokens) Create(_ context.Context, p ports.CreateDownloadTokenParams) (domain.DownloadToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return domain.DownloadToken{}, s.CreateErr
	}
	if _, ok := s.byHash[p.SecretHash]; ok {
		return domain.DownloadToken{}, fmt.Errorf("%w: download secret collision", domain.ErrIntegrity)
	}
	tok := domain.DownloadToken{
		ID:         uuid.New(),
		Email:      p.Email,
		SecretHash: p.SecretHash,
		Category:   p.Category,
		ExpiresAt:  p.ExpiresAt,
		UsageLimit: p.UsageLimit,
		CreatedAt:  p.CreatedAt,
	}
	s.byID[tok.ID] = tok
	s.byHash[tok.SecretHash] = tok.ID
	return tok, nil
}

func (s *Tokens) GetBySecretHash(_ context.Context, hash string) (domain.DownloadToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHash[hash]
	if !ok {
		return domain.DownloadToken{}, domain.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *Tokens) IncrementUsage(_ context.Context, id uuid.UUID, now time.Time) (domain.DownloadToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.byID[id]
	if !ok {
		return domain.DownloadToken{}, domain.ErrNotFound
	}
	if !tok.IsValid(now) {
		return domain.DownloadToken{}, domain.ErrForbidden
	}
	tok.UsageCount++
	s.byID[id] = tok
	return tok, nil
}

func (s *Tokens) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	tok, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byHash, tok.SecretHash)
	return nil
}

func (s *Tokens) List(_ context.Context, page ports.Page) ([]domain.DownloadToken, int64, error) {
	s.mu.Lock()
	all := make([]domain.DownloadToken, 0, len(s.byID))
	for _, tok := range s.byID {
		all = append(all, tok)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return window(all, page), int64(len(all)), nil
}

// All returns every stored token.
func (s *Tokens) All() []domain.DownloadToken {
	out, _, _ := s.List(context.Background(), ports.Page{Limit: 1 << 30})
	return out
}

type Leads struct {
	mu     sync.Mutex
	items  []domain.Lead
	outbox *Outbox
	// CreateErr fails every Create when set.
	CreateErr error
}

func (s *Leads) Create(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return domain.Lead{}, s.CreateErr
	}
	lead.ID = uuid.New()
	s.items = append(s.items, lead)
	return lead, nil
}

func (s *Leads) CreateWithOutbox(ctx context.Context, lead domain.Lead, event ports.OutboxEvent) (domain.Lead, error) {
	stored, err := s.Create(ctx, lead)
	if err != nil {
		return domain.Lead{}, err
	}
	if s.outbox != nil {
		_ = s.outbox.Enqueue(ctx, event)
	}
	return stored, nil
}

func (s *Leads) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.items {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Lead{}, domain.ErrNotFound
}

func (s *Leads) List(_ context.Context, f ports.LeadFilter) ([]domain.Lead, int64, error) {
	all, _ := s.ListAll(context.Background())
	filtered := all[:0]
	for _, l := range all {
		if f.InquiryType == "" || l.InquiryType == f.InquiryType {
			filtered = append(filtered, l)
		}
	}
	return window(filtered, f.Page), int64(len(filtered)), nil
}

func (s *Leads) ListAll(context.Context) ([]domain.Lead, error) {
	s.mu.Lock()
	out := append([]domain.Lead(nil), s.items...)
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Leads) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.items {
		if l.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// All returns stored leads oldest first.
func (s *Leads) All() []domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Lead(nil), s.items...)
}

type RFQs struct {
	mu     sync.Mutex
	items  []domain.RFQSubmission
	outbox *Outbox
	// CreateErr fails every CreateWithOutbox when set.
	CreateErr error
}

func (s *RFQs) CreateWithOutbox(ctx context.Context, rfq domain.RFQSubmission, event ports.OutboxEvent) (domain.RFQSubmission, error) {
	s.mu.Lock()
	if s.CreateErr != nil {
		s.mu.Unlock()
		return domain.RFQSubmission{}, s.CreateErr
	}
	rfq.ID = uuid.New()
	s.items = append(s.items, rfq)
	s.mu.Unlock()
	if s.outbox != nil {
		_ = s.outbox.Enqueue(ctx, event)
	}
	return rfq, nil
}

func (s *RFQs) GetByID(_ context.Context, id uuid.UUID) (domain.RFQSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.RFQSubmission{}, domain.ErrNotFound
}

func (s *RFQs) List(ctx context.Context, page ports.Page) ([]domain.RFQSubmission, int64, error) {
	all, _ := s.ListAll(ctx)
	return window(all, page), int64(len(all)), nil
}

func (s *RFQs) ListAll(context.Context) ([]domain.RFQSubmission, error) {
	s.mu.Lock()
	out := append([]domain.RFQSubmission(nil), s.items...)
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *RFQs) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.items {
		if r.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type Manufacturers struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Manufacturer
}

func (s *Manufacturers) Create(_ context.Context, m domain.Manufacturer) (domain.Manufacturer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.New()
	s.items[m.ID] = m
	return m, nil
}

func (s *Manufacturers) Update(_ context.Context, m domain.Manufacturer) (domain.Manufacturer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[m.ID]; !ok {
		return domain.Manufacturer{}, domain.ErrNotFound
	}
	s.items[m.ID] = m
	return m, nil
}

func (s *Manufacturers) GetByID(_ context.Context, id uuid.UUID) (domain.Manufacturer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[id]
	if !ok {
		return domain.Manufacturer{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *Manufacturers) List(_ context.Context, f ports.ManufacturerFilter) ([]domain.Manufacturer, int64, error) {
	s.mu.Lock()
	out := make([]domain.Manufacturer, 0, len(s.items))
	for _, m := range s.items {
		if m.Active || f.IncludeInactive {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return window(out, f.Page), int64(len(out)), nil
}

func (s *Manufacturers) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type Documents struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Document
}

func (s *Documents) Create(_ context.Context, d domain.Document) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	s.items[d.ID] = d
	return d, nil
}

func (s *Documents) Update(_ context.Context, d domain.Document) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[d.ID]; !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	s.items[d.ID] = d
	return d, nil
}

func (s *Documents) GetByID(_ context.Context, id uuid.UUID) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[id]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return d, nil
}

func (s *Documents) sorted(category domain.DocumentCategory) []domain.Document {
	s.mu.Lock()
	out := make([]domain.Document, 0, len(s.items))
	for _, d := range s.items {
		if category == "" || d.Category == category {
			out = append(out, d)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (s *Documents) List(_ context.Context, f ports.DocumentFilter) ([]domain.Document, int64, error) {
	out := s.sorted(f.Category)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return window(out, f.Page), int64(len(out)), nil
}

func (s *Documents) FirstByCategory(_ context.Context, category domain.DocumentCategory) (domain.Document, error) {
	out := s.sorted(category)
	if len(out) == 0 {
		return domain.Document{}, domain.ErrNotFound
	}
	return out[0], nil
}

func (s *Documents) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type ContentBlocks struct {
	mu     sync.Mutex
	bySlug map[string]domain.ContentBlock
}

func (s *ContentBlocks) Create(_ context.Context, b domain.ContentBlock) (domain.ContentBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bySlug[b.Slug]; ok {
		return domain.ContentBlock{}, fmt.Errorf("%w: slug %q already exists", domain.ErrConflict, b.Slug)
	}
	b.ID = uuid.New()
	s.bySlug[b.Slug] = b
	return b, nil
}

func (s *ContentBlocks) Update(_ context.Context, b domain.ContentBlock) (domain.ContentBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldSlug string
	for slug, existing := range s.bySlug {
		if existing.ID == b.ID {
			oldSlug = slug
		}
	}
	if oldSlug == "" {
		return domain.ContentBlock{}, domain.ErrNotFound
	}
	if other, ok := s.bySlug[b.Slug]; ok && other.ID != b.ID {
		return domain.ContentBlock{}, fmt.Errorf("%w: slug %q already exists", domain.ErrConflict, b.Slug)
	}
	delete(s.bySlug, oldSlug)
	s.bySlug[b.Slug] = b
	return b, nil
}

func (s *ContentBlocks) GetBySlug(_ context.Context, slug string) (domain.ContentBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bySlug[slug]
	if !ok {
		return domain.ContentBlock{}, domain.ErrNotFound
	}
	return b, nil
}

func (s *ContentBlocks) List(_ context.Context, page string) ([]domain.ContentBlock, error) {
	s.mu.Lock()
	out := make([]domain.ContentBlock, 0, len(s.bySlug))
	for _, b := range s.bySlug {
		if page == "" || b.Page == page {
			out = append(out, b)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (s *ContentBlocks) Delete(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bySlug[slug]; !ok {
		return domain.ErrNotFound
	}
	delete(s.bySlug, slug)
	return nil
}

func (s *ContentBlocks) Reorder(_ context.Context, orders []ports.BlockOrder, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := 0
	for _, o := range orders {
		b, ok := s.bySlug[o.Slug]
		if !ok {
			continue
		}
		b.Order = o.Order
		b.UpdatedAt = at
		s.bySlug[o.Slug] = b
		updated++
	}
	return updated, nil
}

type Admins struct {
	mu    sync.Mutex
	items map[string]domain.AdminUser
}

func (s *Admins) Create(_ context.Context, email, hash string, at time.Time) (domain.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	if _, ok := s.items[email]; ok {
		return domain.AdminUser{}, domain.ErrConflict
	}
	a := domain.AdminUser{AdminID: uuid.New(), Email: email, PasswordHash: hash, CreatedAt: at}
	s.items[email] = a
	return a, nil
}

func (s *Admins) GetByEmail(_ context.Context, email string) (domain.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[strings.ToLower(email)]
	if !ok {
		return domain.AdminUser{}, domain.ErrNotFound
	}
	return a, nil
}

func (s *Admins) GetByID(_ context.Context, id uuid.UUID) (domain.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		if a.AdminID == id {
			return a, nil
		}
	}
	return domain.AdminUser{}, domain.ErrNotFound
}

func (s *Admins) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.items)), nil
}

type Sessions struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.AdminSession
}

func (s *Sessions) Create(_ context.Context, p ports.SessionCreateParams) (domain.AdminSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := domain.AdminSession{
		SessionID:      uuid.New(),
		AdminID:        p.AdminID,
		IPAddress:      p.IPAddress,
		UserAgent:      p.UserAgent,
		CreatedAt:      p.LastActivityAt,
		LastActivityAt: p.LastActivityAt,
		ExpiresAt:      p.ExpiresAt,
		RefreshHash:    p.RefreshHash,
	}
	s.items[sess.SessionID] = sess
	return sess, nil
}

func (s *Sessions) GetByID(_ context.Context, id uuid.UUID) (domain.AdminSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok {
		return domain.AdminSession{}, domain.ErrNotFound
	}
	return sess, nil
}

func (s *Sessions) GetByRefreshHash(_ context.Context, hash string) (domain.AdminSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.items {
		if sess.RefreshHash == hash {
			return sess, nil
		}
	}
	return domain.AdminSession{}, domain.ErrNotFound
}

func (s *Sessions) TouchActivity(_ context.Context, id uuid.UUID, at, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if sess.RevokedAt != nil {
		return domain.ErrSessionRevoked
	}
	sess.LastActivityAt = at
	sess.ExpiresAt = expiresAt
	s.items[id] = sess
	return nil
}

func (s *Sessions) RevokeByID(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	sess.RevokedAt = &at
	s.items[id] = sess
	return nil
}

type Outbox struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (s *Outbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Outbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (s *Outbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }

func (s *Outbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (s *Outbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

// EventTypes lists enqueued event types in order.
func (s *Outbox) EventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

type Idempotency struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
}

func (s *Idempotency) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Idempotency) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return domain.ErrConflict
	}
	s.records[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, Status: "PENDING", ExpiresAt: expiresAt}
	return nil
}

func (s *Idempotency) Complete(_ context.Context, key string, code int, body []byte, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = "COMPLETED"
	rec.ResponseCode = code
	rec.ResponseBody = body
	rec.UpdatedAt = at
	s.records[key] = rec
	return nil
}

func (s *Idempotency) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok && rec.Status == "PENDING" {
		delete(s.records, key)
	}
	return nil
}

func window[T any](items []T, page ports.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
