// Package commands wires user intents (send, delete, edit profile) to the
// entry store, the list cache and the toast line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"guestbook/pkg/client"
	"guestbook/pkg/logger"
	"guestbook/pkg/models"
	"guestbook/pkg/policy"
	"guestbook/pkg/threads"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoIdentity   = errors.New("profile has no name")
	ErrBusy         = errors.New("a message is already being sent")
	ErrCancelled    = errors.New("cancelled")
)

// Toast texts.
const (
	MsgBroadcasted    = "讯号已映射到集体意识 / SIGNAL BROADCASTED"
	MsgSendFailed     = "讯号发送失败 / TRANSMISSION FAILED"
	MsgNeedIdentity   = "请先设定身份 / SET YOUR IDENTITY FIRST"
	MsgIdentitySaved  = "身份设定已覆写 / IDENTITY OVERWRITTEN"
	MsgIdentityFailed = "身份写入失败 / IDENTITY WRITE FAILED"
	MsgErased         = "讯号已抹除 / SIGNAL ERASED"
	MsgUnauthorized   = "权限不足 / UNAUTHORIZED"
	MsgEraseMissing   = "讯号不存在 / SIGNAL NOT FOUND"
	MsgEraseFailed    = "抹除失败 / ERASE FAILED"
)

const localIDPrefix = "local-"

type EntryStore interface {
	Post(ctx context.Context, e models.NewEntry) (string, error)
	Delete(ctx context.Context, id, actingName string) error
}

type ListCache interface {
	Snapshot() []models.Entry
	Update(fn func(current []models.Entry) []models.Entry)
	Revalidate(ctx context.Context) ([]models.Entry, error)
}

type Profiles interface {
	Current() models.Profile
	Save(p models.Profile) error
}

type Notifier interface {
	Show(msg string)
}

// Deps are the collaborators of an App. Confirm is asked before every
// delete; a nil Confirm refuses all deletes. CanDelete decides whether the
// active profile gets delete controls.
type Deps struct {
	Store     EntryStore
	Cache     ListCache
	Profiles  Profiles
	Toasts    Notifier
	Confirm   func(models.Entry) bool
	CanDelete policy.DeletePolicy
	NewID     func() string
}

// App is the application context shared by every view.
type App struct {
	store     EntryStore
	cache     ListCache
	profiles  Profiles
	toasts    Notifier
	confirm   func(models.Entry) bool
	canDelete policy.DeletePolicy
	newID     func() string

	mu         sync.Mutex
	replyTo    *string
	draft      string
	editorOpen bool
	sending    bool
}

func New(d Deps) *App {
	a := &App{
		store:     d.Store,
		cache:     d.Cache,
		profiles:  d.Profiles,
		toasts:    d.Toasts,
		confirm:   d.Confirm,
		canDelete: d.CanDelete,
		newID:     d.NewID,
	}
	if a.canDelete == nil {
		a.canDelete = policy.DenyAll
	}
	if a.newID == nil {
		a.newID = func() string { return localIDPrefix + uuid.NewString() }
	}
	return a
}

// SendMessage posts text as the active profile, optionally as a reply.
//
// Blank text is dropped without feedback. A profile without a name opens the
// editor and never reaches the network. Otherwise the entry is shown at once,
// posted, and the list is revalidated whatever the outcome. The reply target
// and draft are cleared only when the post succeeded.
func (a *App) SendMessage(ctx context.Context, text string, replyTo *string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	p := a.profiles.Current()
	if strings.TrimSpace(p.Name) == "" {
		a.mu.Lock()
		a.editorOpen = true
		a.mu.Unlock()
		a.toasts.Show(MsgNeedIdentity)
		return ErrNoIdentity
	}

	a.mu.Lock()
	if a.sending {
		a.mu.Unlock()
		return ErrBusy
	}
	a.sending = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.sending = false
		a.mu.Unlock()
	}()

	if replyTo != nil && strings.TrimSpace(*replyTo) == "" {
		replyTo = nil
	}
	provisional := models.Entry{
		ID:      a.newID(),
		Name:    p.Name,
		Message: text,
		Date:    p.Date,
		OC:      models.Optional(p.OC),
		ReplyTo: replyTo,
	}
	a.cache.Update(func(cur []models.Entry) []models.Entry {
		return append([]models.Entry{provisional}, cur...)
	})

	_, postErr := a.store.Post(ctx, models.NewEntry{
		Name:    provisional.Name,
		Message: provisional.Message,
		Date:    provisional.Date,
		OC:      provisional.OC,
		ReplyTo: provisional.ReplyTo,
	})

	a.revalidate(ctx)

	if postErr != nil {
		logger.For("commands").Warn("send failed", "err", postErr)
		a.toasts.Show(MsgSendFailed)
		return fmt.Errorf("send message: %w", postErr)
	}

	a.mu.Lock()
	a.replyTo = nil
	a.draft = ""
	a.mu.Unlock()
	a.toasts.Show(MsgBroadcasted)
	return nil
}

// DeleteMessage removes e after confirmation, acting as the active profile.
// Authorization failures are ordinary outcomes reported through the toast
// and the returned error.
func (a *App) DeleteMessage(ctx context.Context, e models.Entry) error {
	if a.confirm == nil || !a.confirm(e) {
		return ErrCancelled
	}

	a.cache.Update(func(cur []models.Entry) []models.Entry {
		out := make([]models.Entry, 0, len(cur))
		for _, x := range cur {
			if x.ID != e.ID {
				out = append(out, x)
			}
		}
		return out
	})

	err := a.store.Delete(ctx, e.ID, a.profiles.Current().Name)

	a.revalidate(ctx)

	switch {
	case err == nil:
		a.toasts.Show(MsgErased)
		return nil
	case errors.Is(err, client.ErrForbidden):
		a.toasts.Show(MsgUnauthorized)
	case errors.Is(err, client.ErrNotFound):
		a.toasts.Show(MsgEraseMissing)
	default:
		logger.For("commands").Warn("delete failed", "id", e.ID, "err", err)
		a.toasts.Show(MsgEraseFailed)
	}
	return fmt.Errorf("delete message: %w", err)
}

// SaveProfile persists p as the active identity and closes the editor.
func (a *App) SaveProfile(p models.Profile) error {
	if err := a.profiles.Save(p); err != nil {
		a.toasts.Show(MsgIdentityFailed)
		return err
	}
	a.mu.Lock()
	a.editorOpen = false
	a.mu.Unlock()
	a.toasts.Show(MsgIdentitySaved)
	return nil
}

func (a *App) Profile() models.Profile { return a.profiles.Current() }

// IsAdmin reports whether the active profile is shown delete controls.
func (a *App) IsAdmin() bool {
	return a.canDelete(a.profiles.Current().Name)
}

func (a *App) SetReplyTarget(id *string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id != nil && strings.TrimSpace(*id) == "" {
		id = nil
	}
	a.replyTo = id
}

func (a *App) ReplyTarget() *string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.replyTo
}

func (a *App) SetDraft(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = s
}

func (a *App) Draft() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft
}

func (a *App) OpenEditor() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.editorOpen = true
}

func (a *App) EditorOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editorOpen
}

func (a *App) CloseEditor() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.editorOpen = false
}

// Sending is true while a SendMessage call is in flight.
func (a *App) Sending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sending
}

// Threads is the current snapshot grouped into roots and direct replies.
func (a *App) Threads() []threads.Thread {
	return threads.Build(a.cache.Snapshot())
}

// Unthreaded lists replies that cannot be placed under a root.
func (a *App) Unthreaded() []models.Entry {
	return threads.Unthreaded(a.cache.Snapshot())
}

// IsProvisional reports whether e was created locally and not yet confirmed.
func IsProvisional(e models.Entry) bool {
	return strings.HasPrefix(e.ID, localIDPrefix)
}

func (a *App) revalidate(ctx context.Context) {
	if _, err := a.cache.Revalidate(context.WithoutCancel(ctx)); err != nil {
		logger.For("commands").Debug("revalidate after command failed", "err", err)
	}
}
