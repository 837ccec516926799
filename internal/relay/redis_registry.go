package relay

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"pairlink/internal/constants"
)

type RedisRegistry struct {
	client *redis.Client
	ctx    context.Context
	cancel func()
}

func NewRedisRegistry(host, port, username, password string) (*RedisRegistry, error) {
	opts := &redis.Options{
		Addr:     host + ":" + port,
		Username: username,
		Password: password,
		DB:       0,
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithCancel(context.Background())

	reg := &RedisRegistry{
		client: client,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := reg.client.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, err
	}

	return reg, nil
}

func (reg *RedisRegistry) Save(room *Room) {
	jsonData, err := json.Marshal(room)
	if err != nil {
		log.Printf("Failed to marshal room: %v", err)
		return
	}

	ttl := time.Until(room.ExpiresAt)
	if ttl <= 0 {
		return
	}

	key := constants.RedisKeyPrefix + room.Code
	if err := reg.client.Set(reg.ctx, key, jsonData, ttl).Err(); err != nil {
		log.Printf("Failed to save room to Redis: %v", err)
	}
}

func (reg *RedisRegistry) Get(code string) (*Room, bool) {
	key := constants.RedisKeyPrefix + code

	data, err := reg.client.Get(reg.ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to get room from Redis: %v", err)
		return nil, false
	}

	var room Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		log.Printf("Failed to unmarshal room: %v", err)
		return nil, false
	}

	if room.Expired() {
		reg.Delete(code)
		return nil, false
	}

	return &room, true
}

func (reg *RedisRegistry) Delete(code string) {
	key := constants.RedisKeyPrefix + code
	if err := reg.client.Del(reg.ctx, key).Err(); err != nil {
		log.Printf("Failed to delete room from Redis: %v", err)
	}
}

func (reg *RedisRegistry) Close() error {
	reg.cancel()
	return reg.client.Close()
}
