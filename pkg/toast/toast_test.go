package toast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowThenAutoHide(t *testing.T) {
	n := New(20 * time.Millisecond)
	defer n.Stop()

	n.Show("SIGNAL BROADCASTED")
	assert.Equal(t, Toast{Message: "SIGNAL BROADCASTED", Visible: true}, n.Current())

	require.Eventually(t, func() bool { return !n.Current().Visible }, time.Second, 5*time.Millisecond)
	assert.Empty(t, n.Current().Message)
}

func TestNewerToastRestartsTimer(t *testing.T) {
	n := New(80 * time.Millisecond)
	defer n.Stop()

	n.Show("first")
	time.Sleep(50 * time.Millisecond)
	n.Show("second")
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, Toast{Message: "second", Visible: true}, n.Current())
}

func TestOnChangeAndStop(t *testing.T) {
	n := New(10 * time.Millisecond)

	var mu sync.Mutex
	var seen []Toast
	n.OnChange(func(t Toast) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, t)
	})

	n.Show("a")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 5*time.Millisecond)

	n.Stop()
	n.Show("ignored")
	assert.False(t, n.Current().Visible)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Toast{{Message: "a", Visible: true}, {}}, seen)
}
