package toast

import (
	"sync"
	"time"
)

type Toast struct {
	Message string
	Visible bool
}

// Notifier shows one toast at a time and hides it after a fixed duration.
// A newer Show replaces the message and restarts the timer.
type Notifier struct {
	duration time.Duration

	mu       sync.Mutex
	current  Toast
	timer    *time.Timer
	gen      uint64
	stopped  bool
	onChange func(Toast)
}

func New(duration time.Duration) *Notifier {
	if duration <= 0 {
		duration = 3 * time.Second
	}
	return &Notifier{duration: duration}
}

// OnChange registers the render hook; it is called on show and on hide.
func (n *Notifier) OnChange(fn func(Toast)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = fn
}

func (n *Notifier) Show(msg string) {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.gen++
	gen := n.gen
	n.current = Toast{Message: msg, Visible: true}
	n.timer = time.AfterFunc(n.duration, func() { n.hide(gen) })
	t, fn := n.current, n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn(t)
	}
}

func (n *Notifier) Current() Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Stop cancels the pending hide. Later Show calls are ignored.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = true
	if n.timer != nil {
		n.timer.Stop()
	}
}

func (n *Notifier) hide(gen uint64) {
	n.mu.Lock()
	if n.stopped || gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.current = Toast{}
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn(Toast{})
	}
}
