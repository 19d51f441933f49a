package threads

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestbook/pkg/models"
)

func entry(id, date string, replyTo string) models.Entry {
	return models.Entry{ID: id, Name: "n" + id, Message: "m" + id, Date: date, ReplyTo: models.Optional(replyTo)}
}

func ids(entries []models.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestBuildKeepsRootOrder(t *testing.T) {
	in := []models.Entry{
		entry("3", "RetroFan", ""),
		entry("2", "The Void", ""),
		entry("1", "公元3033年", ""),
	}

	got := Build(in)
	require.Len(t, got, 3)
	for i, th := range got {
		assert.Equal(t, in[i].ID, th.Root.ID)
		assert.Empty(t, th.Replies)
	}
}

func TestBuildSortsParseableReplyDatesAscending(t *testing.T) {
	in := []models.Entry{
		entry("r2", "2025-03-02", "root"),
		entry("r1", "2025/3/1 10:00:00", "root"),
		entry("root", "whenever", ""),
		entry("r0", "2024-12-31", "root"),
	}

	got := Build(in)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"r0", "r1", "r2"}, ids(got[0].Replies))
}

func TestBuildKeepsEncounterOrderWhenADateIsFreeText(t *testing.T) {
	in := []models.Entry{
		entry("root", "x", ""),
		entry("r2", "2025-03-02", "root"),
		entry("r1", "The Void", "root"),
		entry("r0", "2024-12-31", "root"),
	}

	got := Build(in)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"r2", "r1", "r0"}, ids(got[0].Replies))
}

func TestBuildDoesNotNestRepliesToReplies(t *testing.T) {
	in := []models.Entry{
		entry("deep", "2025-01-03", "reply"),
		entry("reply", "2025-01-02", "root"),
		entry("root", "2025-01-01", ""),
	}

	got := Build(in)
	require.Len(t, got, 1)
	assert.Equal(t, "root", got[0].Root.ID)
	assert.Equal(t, []string{"reply"}, ids(got[0].Replies))

	assert.Equal(t, []string{"deep"}, ids(Unthreaded(in)))
}

func TestBuildDropsRepliesToUnknownParents(t *testing.T) {
	in := []models.Entry{
		entry("orphan", "d", "gone"),
		entry("root", "d", ""),
	}

	got := Build(in)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Replies)
	assert.Equal(t, []string{"orphan"}, ids(Unthreaded(in)))
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil))
	assert.Empty(t, Unthreaded(nil))
}

func TestBuildPartitionCompleteness(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		var in []models.Entry
		var rootIDs []string
		for i := 0; i < 30; i++ {
			id := fmt.Sprintf("e%d", i)
			parent := ""
			if len(rootIDs) > 0 && r.Intn(2) == 0 {
				parent = rootIDs[r.Intn(len(rootIDs))]
			}
			if parent == "" {
				rootIDs = append(rootIDs, id)
			}
			in = append(in, entry(id, fmt.Sprintf("2025-01-%02d", 1+r.Intn(28)), parent))
		}

		got := Build(in)

		seen := map[string]int{}
		for _, th := range got {
			seen[th.Root.ID]++
			for _, rep := range th.Replies {
				seen[rep.ID]++
				assert.Equal(t, th.Root.ID, *rep.ReplyTo)
			}
			for i := 1; i < len(th.Replies); i++ {
				a, _ := ParseDate(th.Replies[i-1].Date)
				b, _ := ParseDate(th.Replies[i].Date)
				assert.False(t, b.Before(a), "replies out of order")
			}
		}
		for _, e := range in {
			assert.Equal(t, 1, seen[e.ID], "entry %s", e.ID)
		}
		assert.Equal(t, got, Build(in), "not deterministic")
	}
}

func TestParseDate(t *testing.T) {
	_, ok := ParseDate("1999-12-31")
	assert.True(t, ok)
	_, ok = ParseDate("2025/1/2 15:04:05")
	assert.True(t, ok)
	_, ok = ParseDate("公元3033年")
	assert.False(t, ok)
	_, ok = ParseDate("  ")
	assert.False(t, ok)
}
