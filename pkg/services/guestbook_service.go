package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"guestbook/pkg/envelope"
	"guestbook/pkg/logger"
	"guestbook/pkg/models"
	"guestbook/pkg/policy"
	"guestbook/pkg/repository"
)

var (
	ErrInvalidEntry = errors.New("name and message are required")
	ErrForbidden    = errors.New("unauthorized")
	ErrNotFound     = errors.New("message not found")
)

const listCacheKey = "guestbook:entries"

// SnapshotCache caches the newest-first entry list between writes.
type SnapshotCache interface {
	GetEntries(ctx context.Context, key string) ([]models.Entry, bool)
	SetEntries(ctx context.Context, key string, entries []models.Entry, ttl time.Duration)
	Del(ctx context.Context, keys ...string)
}

// EventPublisher tells live subscribers that the list changed.
type EventPublisher interface {
	PublishEvent(ctx context.Context, action string, data interface{}) error
}

type GuestbookService interface {
	List(ctx context.Context) ([]models.Entry, error)
	Create(ctx context.Context, req models.CreateRequest) (string, error)
	Delete(ctx context.Context, id, username string) error
}

type Options struct {
	Cache    SnapshotCache
	Events   EventPublisher
	CacheTTL time.Duration
	Now      func() time.Time
}

type guestbookService struct {
	repo     repository.GuestbookRepository
	canDel   policy.DeletePolicy
	cache    SnapshotCache
	events   EventPublisher
	cacheTTL time.Duration
	now      func() time.Time
}

func NewGuestbookService(repo repository.GuestbookRepository, canDelete policy.DeletePolicy, opts Options) GuestbookService {
	s := &guestbookService{
		repo:     repo,
		canDel:   canDelete,
		cache:    opts.Cache,
		events:   opts.Events,
		cacheTTL: opts.CacheTTL,
		now:      opts.Now,
	}
	if s.canDel == nil {
		s.canDel = policy.DenyAll
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = 15 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// List returns every entry, most recent first.
func (s *guestbookService) List(ctx context.Context) ([]models.Entry, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetEntries(ctx, listCacheKey); ok {
			return cached, nil
		}
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}

	entries := make([]models.Entry, len(rows))
	for i, row := range rows {
		entries[len(rows)-1-i] = row.ToEntry()
	}

	if s.cache != nil {
		s.cache.SetEntries(ctx, listCacheKey, entries, s.cacheTTL)
	}
	return entries, nil
}

func (s *guestbookService) Create(ctx context.Context, req models.CreateRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	message := strings.TrimSpace(req.Message)
	if name == "" || message == "" {
		return "", ErrInvalidEntry
	}

	date := req.Date
	if strings.TrimSpace(date) == "" {
		date = s.now().Format("2006/1/2 15:04:05")
	}

	row := models.Row{
		ID:      NewEntryID(s.now()),
		Name:    req.Name,
		Message: req.Message,
		Date:    date,
		OC:      req.OC,
		ReplyTo: req.ReplyTo,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return "", fmt.Errorf("insert row: %w", err)
	}

	s.invalidate(ctx)
	s.publish(ctx, envelope.ActionEntryCreated, row.ToEntry().ToWire())

	logger.For("guestbook").Info("entry created", "id", row.ID, "reply_to", row.ReplyTo)
	return row.ID, nil
}

func (s *guestbookService) Delete(ctx context.Context, id, username string) error {
	if !s.canDel(username) {
		return ErrForbidden
	}

	ok, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	s.invalidate(ctx)
	s.publish(ctx, envelope.ActionEntryDeleted, map[string]string{"id": id})

	logger.For("guestbook").Info("entry deleted", "id", id)
	return nil
}

func (s *guestbookService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Del(ctx, listCacheKey)
	}
}

func (s *guestbookService) publish(ctx context.Context, action string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, action, data); err != nil {
		logger.For("guestbook").Warn("event publish failed", "action", action, "err", err)
	}
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewEntryID is the millisecond timestamp in base36 followed by five random
// base36 characters.
func NewEntryID(now time.Time) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < 5; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte('0')
			continue
		}
		b.WriteByte(base36[n.Int64()])
	}
	return b.String()
}
