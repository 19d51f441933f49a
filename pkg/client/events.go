package client

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"guestbook/pkg/envelope"
	"guestbook/pkg/logger"
)

// EventsURL derives the websocket address of the event hub from the API
// endpoint, e.g. http://host:8082/api/guestbook -> ws://host:8082/ws.
func EventsURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = ""
	return u.String(), nil
}

// Listener keeps a websocket open to the event hub and calls onEvent for
// every entry.created / entry.deleted envelope. It reconnects until its
// context is cancelled.
type Listener struct {
	url     string
	onEvent func(envelope.Envelope)
	retry   time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewListener(wsURL string, onEvent func(envelope.Envelope)) *Listener {
	return &Listener{url: wsURL, onEvent: onEvent, retry: 3 * time.Second}
}

// Run blocks until ctx is done. Call it with go.
func (l *Listener) Run(ctx context.Context) {
	log := logger.For("events")

	stop := context.AfterFunc(ctx, l.closeConn)
	defer stop()

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
		if err != nil {
			log.Debug("dial failed, retrying", "url", l.url, "err", err, "retry", l.retry)
			if !sleep(ctx, l.retry) {
				return
			}
			continue
		}

		l.mu.Lock()
		l.conn = conn
		l.mu.Unlock()
		if ctx.Err() != nil {
			l.closeConn()
			return
		}

		log.Info("connected", "url", l.url)
		l.readLoop(conn)
		l.closeConn()
		log.Info("disconnected, reconnecting")

		if !sleep(ctx, time.Second) {
			return
		}
	}
}

func (l *Listener) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := envelope.Unmarshal(raw)
		if err != nil {
			continue
		}
		if strings.HasPrefix(env.Action, "entry.") && l.onEvent != nil {
			l.onEvent(env)
		}
	}
}

func (l *Listener) closeConn() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
