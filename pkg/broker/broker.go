package broker

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"

	"flota/pkg/envelope"

	"github.com/redis/go-redis/v9"
)

// Broker reparte envelopes entre instancias del servicio vía Redis
// pub/sub: un aviso generado en una instancia llega a los sockets
// conectados a cualquiera de las demás.
type Broker struct {
	rdb      *redis.Client
	ctx      context.Context
	cancel   context.CancelFunc
	handlers sync.Map
}

type HandlerFunc func(envelope.Envelope)

func New() *Broker {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("redis url inválida:", err)
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithCancel(context.Background())

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis ping falló:", err)
	}

	return &Broker{rdb: rdb, ctx: ctx, cancel: cancel}
}

func (b *Broker) Publish(channel string, env envelope.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	return b.rdb.Publish(b.ctx, channel, data).Err()
}

// Broadcast publica un evento nuevo en el canal.
func (b *Broker) Broadcast(channel, action, service string, data interface{}) error {
	env, err := envelope.NewEvent(action, service, data)
	if err != nil {
		return err
	}
	return b.Publish(channel, env)
}

// Subscribe escucha los canales dados y despacha cada envelope al
// handler registrado para su action ("" captura todo).
func (b *Broker) Subscribe(channels ...string) {
	sub := b.rdb.Subscribe(b.ctx, channels...)
	ch := sub.Channel()

	go func() {
		defer sub.Close()
		for {
			select {
			case <-b.ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env envelope.Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					continue
				}
				if fn, ok := b.handlers.Load(env.Action); ok {
					go fn.(HandlerFunc)(env)
					continue
				}
				if fn, ok := b.handlers.Load(""); ok {
					go fn.(HandlerFunc)(env)
				}
			}
		}
	}()
}

func (b *Broker) On(action string, fn HandlerFunc) {
	b.handlers.Store(action, fn)
}

func (b *Broker) Close() {
	b.cancel()
	b.rdb.Close()
}
