// Package threads groups a flat, newest-first entry list into root entries
// and their direct replies.
package threads

import (
	"sort"
	"strings"
	"time"

	"guestbook/pkg/models"
)

// Thread is a root entry with its direct replies.
type Thread struct {
	Root    models.Entry   `json:"root"`
	Replies []models.Entry `json:"replies"`
}

// dateLayouts are the formats a free-text date is tried against. The
// slash forms match what zh-CN toLocaleString produces.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006",
}

// ParseDate tries every known layout; ok is false for free-text labels
// like "The Void".
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Build partitions entries into roots (input order kept) and, for each root,
// the entries whose ReplyTo names it. Replies are ordered by ascending date
// when every date in the group parses, otherwise in encounter order.
//
// Only one level is built: a reply whose parent is itself a reply, or whose
// parent is missing, is not placed in any thread. See Unthreaded.
func Build(entries []models.Entry) []Thread {
	threads := make([]Thread, 0, len(entries))
	index := make(map[string]int)

	for _, e := range entries {
		if !e.IsRoot() {
			continue
		}
		if _, dup := index[e.ID]; !dup {
			index[e.ID] = len(threads)
		}
		threads = append(threads, Thread{Root: e, Replies: []models.Entry{}})
	}

	for _, e := range entries {
		if e.IsRoot() {
			continue
		}
		i, ok := index[*e.ReplyTo]
		if !ok {
			continue
		}
		threads[i].Replies = append(threads[i].Replies, e)
	}

	for i := range threads {
		sortByDate(threads[i].Replies)
	}
	return threads
}

// Unthreaded returns the replies Build leaves out of the tree, in input order.
func Unthreaded(entries []models.Entry) []models.Entry {
	roots := make(map[string]struct{})
	for _, e := range entries {
		if e.IsRoot() {
			roots[e.ID] = struct{}{}
		}
	}

	var out []models.Entry
	for _, e := range entries {
		if e.IsRoot() {
			continue
		}
		if _, ok := roots[*e.ReplyTo]; !ok {
			out = append(out, e)
		}
	}
	return out
}

func sortByDate(replies []models.Entry) {
	if len(replies) < 2 {
		return
	}
	stamps := make([]time.Time, len(replies))
	for i, r := range replies {
		t, ok := ParseDate(r.Date)
		if !ok {
			return
		}
		stamps[i] = t
	}

	order := make([]int, len(replies))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return stamps[order[a]].Before(stamps[order[b]])
	})

	sorted := make([]models.Entry, len(replies))
	for i, j := range order {
		sorted[i] = replies[j]
	}
	copy(replies, sorted)
}
