package infra_redis_results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/suprdory/filmvote/core/internal/model"
)

// Archive appends finished-vote winners to a redis list so the stats page
// can read the history back out. Recording is best-effort; the vote itself
// never depends on it.
type Archive struct {
	client *redis.Client
	key    string
}

func New(client *redis.Client, key string) *Archive {
	return &Archive{
		client: client,
		key:    key,
	}
}

type resultRecord struct {
	SessionCode string    `json:"session_code"`
	Title       string    `json:"title"`
	Year        int       `json:"year"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

func (a *Archive) Record(_ context.Context, code model.SessionCode, winner model.Film, startedAt, finishedAt time.Time) error {
	raw, err := json.Marshal(resultRecord{
		SessionCode: string(code),
		Title:       winner.Title,
		Year:        winner.Year,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if err := a.client.RPush(a.getFullKey(), raw).Err(); err != nil {
		return fmt.Errorf("failed to push result: %w", err)
	}

	return nil
}

func (a *Archive) getFullKey() string {
	if a.key != "" {
		return a.key + ":winners"
	}
	return "winners"
}
