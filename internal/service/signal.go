package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func Channel(userID string) string {
	return "portal:events:" + userID
}

func (s *SignalService) Publish(ctx context.Context, userID string, event domain.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode event")
	}

	err = s.rdb.Publish(ctx, Channel(userID), jsonstr).Err()
	if err != nil {
		return errors.Wrap(err, "failed to publish event")

	}

	return nil
}

// Realtime forwards the events of userID to output until ctx is done.
// output is never closed here.
func (s *SignalService) Realtime(ctx context.Context, userID string, output chan<- domain.Event) {
	pubsub := s.rdb.Subscribe(ctx, Channel(userID))
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event domain.Event
			err := json.Unmarshal([]byte(msg.Payload), &event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Failed to decode event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
