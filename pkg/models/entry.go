package models

import "strings"

// Entry is one guestbook message. OC and ReplyTo are nil when absent.
type Entry struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Message string  `json:"message"`
	Date    string  `json:"date"`
	OC      *string `json:"oc,omitempty"`
	ReplyTo *string `json:"replyTo,omitempty"`
}

// IsRoot reports whether the entry starts a thread.
func (e Entry) IsRoot() bool {
	return e.ReplyTo == nil || *e.ReplyTo == ""
}

// NewEntry is the payload a client sends to create an entry.
type NewEntry struct {
	Name    string
	Message string
	Date    string
	OC      *string
	ReplyTo *string
}

// WireEntry is the JSON shape served on /api/guestbook. Empty strings mean
// "absent" for oc and replyTo.
type WireEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Date    string `json:"date"`
	OC      string `json:"oc"`
	ReplyTo string `json:"replyTo"`
}

// CreateRequest is the POST body.
type CreateRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Date    string `json:"date,omitempty"`
	OC      string `json:"oc,omitempty"`
	ReplyTo string `json:"replyTo,omitempty"`
}

// DeleteRequest is the DELETE body.
type DeleteRequest struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Row is one record of the row store, with columns id, name, message,
// date, oc and reply_to.
type Row struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Date    string `json:"date"`
	OC      string `json:"oc"`
	ReplyTo string `json:"reply_to"`
}

// Optional turns an empty string into nil.
func Optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (e Entry) ToWire() WireEntry {
	return WireEntry{
		ID:      e.ID,
		Name:    e.Name,
		Message: e.Message,
		Date:    e.Date,
		OC:      Deref(e.OC),
		ReplyTo: Deref(e.ReplyTo),
	}
}

func (w WireEntry) ToEntry() Entry {
	return Entry{
		ID:      w.ID,
		Name:    w.Name,
		Message: w.Message,
		Date:    w.Date,
		OC:      Optional(w.OC),
		ReplyTo: Optional(w.ReplyTo),
	}
}

func (r Row) ToEntry() Entry {
	return Entry{
		ID:      r.ID,
		Name:    r.Name,
		Message: r.Message,
		Date:    r.Date,
		OC:      Optional(r.OC),
		ReplyTo: Optional(r.ReplyTo),
	}
}

// WireList converts entries for the HTTP response; never returns nil so the
// body is [] rather than null.
func WireList(entries []Entry) []WireEntry {
	out := make([]WireEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToWire())
	}
	return out
}

// Clone copies a slice of entries so callers cannot alias cached state.
func Clone(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
