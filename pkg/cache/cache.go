package cache

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis es el caché explícito del dashboard: cada lectura cara (flota,
// disponibilidad) puede pasar por aquí, y cada mutación invalida sus
// llaves. Nunca se usa como espejo de verdad del store. Los métodos son
// seguros con receptor nil para que los tests corran sin Redis.
type Redis struct {
	client *redis.Client
	ctx    context.Context
}

func New() *Redis {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("redis url inválida:", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 3

	client := redis.NewClient(opt)
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("redis ping falló:", err)
	}

	return &Redis{client: client, ctx: ctx}
}

// Get recupera un valor JSON del caché.
func (r *Redis) Get(key string, dest interface{}) bool {
	if r == nil || r.client == nil {
		return false
	}
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

// Set guarda un valor JSON en el caché.
func (r *Redis) Set(key string, value interface{}, ttl time.Duration) {
	if r == nil || r.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	r.client.Set(r.ctx, key, data, ttl)
}

func (r *Redis) Del(keys ...string) {
	if r == nil || r.client == nil {
		return
	}
	r.client.Del(r.ctx, keys...)
}

// DelPattern borra llaves por patrón en lotes.
func (r *Redis) DelPattern(pattern string) {
	if r == nil || r.client == nil {
		return
	}
	iter := r.client.Scan(r.ctx, 0, pattern, 0).Iterator()
	const batchSize = 100

	pipe := r.client.Pipeline()
	count := 0

	for iter.Next(r.ctx) {
		pipe.Del(r.ctx, iter.Val())
		count++

		if count >= batchSize {
			pipe.Exec(r.ctx)
			count = 0
		}
	}

	if count > 0 {
		pipe.Exec(r.ctx)
	}
}

func (r *Redis) Close() {
	if r == nil || r.client == nil {
		return
	}
	r.client.Close()
}
