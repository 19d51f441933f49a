package broker

import (
	"context"
	"sync"

	"guestbook/pkg/envelope"
	"guestbook/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Channel carries guestbook events between server instances.
const Channel = "guestbook:events"

type HandlerFunc func(envelope.Envelope)

// Broker relays events through Redis pub/sub so every instance's websocket
// hub sees writes made on any instance.
type Broker struct {
	rdb    *redis.Client
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(rdb *redis.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{rdb: rdb, ctx: ctx, cancel: cancel}
}

func (b *Broker) Publish(ctx context.Context, env envelope.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, Channel, data).Err()
}

// PublishEvent wraps data in an envelope and publishes it.
func (b *Broker) PublishEvent(ctx context.Context, action string, data interface{}) error {
	env, err := envelope.NewEvent(action, "guestbook", data)
	if err != nil {
		return err
	}
	return b.Publish(ctx, env)
}

// Subscribe delivers every event on Channel to fn until Close.
func (b *Broker) Subscribe(fn HandlerFunc) {
	sub := b.rdb.Subscribe(b.ctx, Channel)
	ch := sub.Channel()
	log := logger.For("broker")

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer sub.Close()
		for {
			select {
			case <-b.ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				env, err := envelope.Unmarshal([]byte(msg.Payload))
				if err != nil {
					log.Warn("dropping malformed event", "err", err)
					continue
				}
				fn(env)
			}
		}
	}()
}

func (b *Broker) Close() {
	b.cancel()
	b.wg.Wait()
}
