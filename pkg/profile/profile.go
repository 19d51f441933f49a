// Package profile holds the local pseudonym used to sign new entries.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"guestbook/pkg/localstore"
	"guestbook/pkg/logger"
	"guestbook/pkg/models"
)

const (
	StorageKey  = "ghostTramProfile"
	GuestPrefix = "迷途幽灵_"
	DateLayout  = "2006/1/2 15:04:05"
)

// Storage is the durable key/value backend, normally a *localstore.Store.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

type Options struct {
	Now  func() time.Time
	Rand func(n int) int
}

// State is the active profile plus its persistence.
type State struct {
	store Storage

	mu      sync.RWMutex
	current models.Profile
}

// Load reads the saved profile. When nothing is saved, or the saved value
// cannot be decoded, a guest profile is synthesized but not persisted.
func Load(store Storage, opts Options) (*State, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.Intn
	}

	s := &State{store: store}

	raw, err := store.Get(StorageKey)
	switch {
	case errors.Is(err, localstore.ErrNotFound):
		s.current = Default(opts.Now(), opts.Rand)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var p models.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		logger.For("profile").Warn("saved profile unreadable, starting as guest", "err", err)
		s.current = Default(opts.Now(), opts.Rand)
		return s, nil
	}
	s.current = p
	return s, nil
}

// Default is a guest profile with a random numeric suffix in [0, 1000).
func Default(now time.Time, randn func(int) int) models.Profile {
	return models.Profile{
		Name: GuestPrefix + strconv.Itoa(randn(1000)),
		Date: now.Format(DateLayout),
	}
}

func (s *State) Current() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save replaces the profile in memory and in storage. The in-memory value
// is only replaced once the write succeeded.
func (s *State) Save(p models.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(StorageKey, raw); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.current = p
	return nil
}
