package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestbook/pkg/envelope"
	"guestbook/pkg/models"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func deadEndpoint(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/api/guestbook"
	srv.Close()
	return url
}

func TestFetchAllDecodesWireShape(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`[{"id":"b","name":"n","message":"m","date":"d","oc":"","replyTo":"a"},{"id":"a","name":"n","message":"m","date":"d","oc":"Ghost","replyTo":""}]`))
	})

	entries, err := New(srv.URL, Options{}).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].ID)
	assert.Equal(t, "a", models.Deref(entries[0].ReplyTo))
	assert.Nil(t, entries[0].OC)
	assert.Nil(t, entries[1].ReplyTo)
	assert.Equal(t, "Ghost", models.Deref(entries[1].OC))
}

func TestFetchAllFallsBack(t *testing.T) {
	cases := map[string]string{
		"transport": deadEndpoint(t),
		"404": newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}).URL,
		"500": newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}).URL,
		"malformed": newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}).URL,
	}

	for name, endpoint := range cases {
		t.Run(name, func(t *testing.T) {
			c := New(endpoint, Options{Timeout: time.Second})
			first, err := c.FetchAll(context.Background())
			require.ErrorIs(t, err, ErrUnavailable)
			second, err := c.FetchAll(context.Background())
			require.ErrorIs(t, err, ErrUnavailable)

			assert.NotEmpty(t, first)
			assert.Equal(t, Fallback(), first)
			assert.Equal(t, first, second)
		})
	}
}

func TestFetchAllReportsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(deadEndpoint(t), Options{}).FetchAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostSendsBodyAndReturnsID(t *testing.T) {
	var got models.CreateRequest
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"status":"success","id":"srv-1"}`))
	})

	id, err := New(srv.URL, Options{}).Post(context.Background(), models.NewEntry{
		Name:    "Ghost",
		Message: "hello",
		Date:    "2025/1/1 00:00:00",
		ReplyTo: models.Optional("root"),
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", id)
	assert.Equal(t, "root", got.ReplyTo)
	assert.Equal(t, "", got.OC)
}

func TestPostSoftSuccess(t *testing.T) {
	notFound := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for name, endpoint := range map[string]string{"404": notFound.URL, "transport": deadEndpoint(t)} {
		t.Run(name, func(t *testing.T) {
			c := New(endpoint, Options{SoftSuccessDelay: 50 * time.Millisecond, Timeout: time.Second})
			start := time.Now()
			id, err := c.Post(context.Background(), models.NewEntry{Name: "n", Message: "m"})
			require.NoError(t, err)
			assert.Empty(t, id)
			assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
		})
	}
}

func TestPostServerErrorIsLoud(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to process request"}`))
	})

	_, err := New(srv.URL, Options{}).Post(context.Background(), models.NewEntry{Name: "n", Message: "m"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "Failed to process request", se.Message)
}

func TestDeleteOutcomes(t *testing.T) {
	var mu sync.Mutex
	var last models.DeleteRequest
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var req models.DeleteRequest
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		mu.Lock()
		last = req
		mu.Unlock()

		switch {
		case req.Username != "露西":
			w.WriteHeader(http.StatusForbidden)
		case req.ID == "gone":
			w.WriteHeader(http.StatusNotFound)
		case req.ID == "boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`{"status":"deleted"}`))
		}
	})
	c := New(srv.URL, Options{})
	ctx := context.Background()

	assert.ErrorIs(t, c.Delete(ctx, "a", "Ghost"), ErrForbidden)
	assert.ErrorIs(t, c.Delete(ctx, "gone", "露西"), ErrNotFound)
	assert.Error(t, c.Delete(ctx, "boom", "露西"))
	assert.NoError(t, c.Delete(ctx, "a", "露西"))

	mu.Lock()
	assert.Equal(t, models.DeleteRequest{ID: "a", Username: "露西"}, last)
	mu.Unlock()
}

func TestDeleteTransportFailure(t *testing.T) {
	err := New(deadEndpoint(t), Options{Timeout: time.Second}).Delete(context.Background(), "a", "露西")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestEventsURL(t *testing.T) {
	u, err := EventsURL("http://localhost:8082/api/guestbook")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8082/ws", u)

	u, err = EventsURL("https://ghost.example/api/guestbook?x=1")
	require.NoError(t, err)
	assert.Equal(t, "wss://ghost.example/ws", u)
}

func TestListenerDeliversEntryEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, action := range []string{envelope.ActionUserCount, envelope.ActionEntryCreated} {
			env, _ := envelope.NewEvent(action, "guestbook", map[string]string{"id": "x"})
			raw, _ := env.Marshal()
			_ = conn.WriteMessage(websocket.TextMessage, raw)
		}
		_, _, _ = conn.ReadMessage()
	})

	wsURL, err := EventsURL(srv.URL)
	require.NoError(t, err)

	got := make(chan envelope.Envelope, 4)
	l := NewListener(wsURL, func(env envelope.Envelope) { got <- env })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	select {
	case env := <-got:
		assert.Equal(t, envelope.ActionEntryCreated, env.Action)
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}
