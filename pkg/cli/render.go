package cli

import (
	"fmt"
	"io"
	"strings"

	"guestbook/pkg/commands"
	"guestbook/pkg/models"
	"guestbook/pkg/threads"
)

// renderThreads prints roots newest first with their replies indented
// below in chronological order. Replies that cannot be placed are listed
// at the end when showUnthreaded is set.
func renderThreads(w io.Writer, ts []threads.Thread, unthreaded []models.Entry, showUnthreaded bool) {
	if len(ts) == 0 && (!showUnthreaded || len(unthreaded) == 0) {
		fmt.Fprintln(w, "(no signals yet)")
		return
	}

	for i, t := range ts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		renderEntry(w, t.Root, "")
		for _, r := range t.Replies {
			renderEntry(w, r, "    ↳ ")
		}
	}

	if showUnthreaded && len(unthreaded) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "-- unthreaded replies --")
		for _, e := range unthreaded {
			renderEntry(w, e, "    ? ")
		}
	}
}

func renderEntry(w io.Writer, e models.Entry, prefix string) {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString("[")
	b.WriteString(e.Date)
	b.WriteString("] ")
	b.WriteString(e.Name)
	if e.OC != nil {
		b.WriteString(" <")
		b.WriteString(*e.OC)
		b.WriteString(">")
	}
	b.WriteString("  #")
	b.WriteString(e.ID)
	if commands.IsProvisional(e) {
		b.WriteString(" (sending)")
	}
	fmt.Fprintln(w, b.String())

	indent := strings.Repeat(" ", len([]rune(prefix))+2)
	for _, line := range strings.Split(e.Message, "\n") {
		fmt.Fprintln(w, indent+line)
	}
}

func renderProfile(w io.Writer, p models.Profile, admin bool) {
	fmt.Fprintf(w, "name: %s\n", p.Name)
	fmt.Fprintf(w, "date: %s\n", p.Date)
	fmt.Fprintf(w, "oc:   %s\n", p.OC)
	if admin {
		fmt.Fprintln(w, "role: conductor (may erase signals)")
	}
}
