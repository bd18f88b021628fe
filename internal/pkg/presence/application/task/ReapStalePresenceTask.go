package task

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	qport "github.com/videv93/book-circle-sub001/internal/infrastructure/queue/port"
	repoAdapter "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/adapter"
)

// ReapStalePresenceTaskType is the queue task name for closing abandoned
// occupancy sessions. listMembers already hides stale records at read time;
// the reaper sets left_at so the history stays truthful.
const ReapStalePresenceTaskType = "presence:reap_stale"

// ReapStalePresencePayload is the JSON payload transported via the queue.
type ReapStalePresencePayload struct {
	StaleWindowSeconds int `json:"staleWindowSeconds"`
}

// RegisterReapStalePresenceTask binds the reaper handler to the provided server.
func RegisterReapStalePresenceTask(srv qport.Server, pool *pgxpool.Pool) {
	srv.Register(ReapStalePresenceTaskType, func(ctx context.Context, t qport.Task) error {
		var p ReapStalePresencePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}
		window := time.Duration(p.StaleWindowSeconds) * time.Second
		if window <= 0 {
			window = 90 * time.Second
		}

		repo := repoAdapter.NewPgPresenceRepository(pool)

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		now := time.Now().UTC()
		closed, err := repo.CloseStale(ctx, now.Add(-window), now)
		if err != nil {
			// Signal retry; the adapter controls backoff.
			return err
		}
		if closed > 0 {
			log.Printf("presence reaper: closed %d stale records", closed)
		}
		return nil
	})
}

// EnqueueReap schedules one reaper run. main calls this on an interval so the
// work itself rides the queue's retry semantics.
func EnqueueReap(ctx context.Context, client qport.Client, staleWindow time.Duration) error {
	payload, err := json.Marshal(ReapStalePresencePayload{StaleWindowSeconds: int(staleWindow / time.Second)})
	if err != nil {
		return err
	}
	_, err = client.Enqueue(ctx, qport.Task{Type: ReapStalePresenceTaskType, Payload: payload}, qport.EnqueueOption{
		Queue:     "presence",
		MaxRetry:  3,
		UniqueTTL: staleWindow,
	})
	return err
}
