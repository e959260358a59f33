package game

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
)

// RedisRoundStore persists round records as a Redis list per room.
type RedisRoundStore struct {
	rdclient *redis.Client
}

func NewRedisRoundStore(redisURL string, redisPW string, redisDB int) *RedisRoundStore {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	return &RedisRoundStore{
		rdclient: rdclient,
	}
}

func roundsKey(roomID uint32) string {
	return fmt.Sprintf("rounds|%d", roomID)
}

func (r *RedisRoundStore) SaveRound(ctx context.Context, rec *RoundRecord) error {
	data, err := jsoniter.Marshal(rec)
	if err != nil {
		return err
	}
	return r.rdclient.RPush(ctx, roundsKey(rec.RoomID), data).Err()
}

func (r *RedisRoundStore) LoadRounds(ctx context.Context, roomID uint32) ([]*RoundRecord, error) {
	stored, err := r.rdclient.LRange(ctx, roundsKey(roomID), 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	out := make([]*RoundRecord, 0, len(stored))
	for _, data := range stored {
		rec := &RoundRecord{}
		if err := jsoniter.Unmarshal([]byte(data), rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisRoundStore) RemoveRounds(ctx context.Context, roomID uint32) error {
	return r.rdclient.Del(ctx, roundsKey(roomID)).Err()
}
