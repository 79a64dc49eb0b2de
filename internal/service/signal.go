package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/nesafe/yatri"
)

const issueChannel = "yatri.issued"

// SignalService fans issuance events out through redis pub/sub.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) PublishIssue(ctx context.Context, event yatri.IssueEvent) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, issueChannel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime forwards issuance events to output until ctx is done. Malformed
// messages are skipped.
func (s *SignalService) Realtime(ctx context.Context, output chan<- yatri.IssueEvent) {
	pubsub := s.rdb.Subscribe(ctx, issueChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event yatri.IssueEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.DebugContext(ctx, "dropping malformed issue event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case output <- event:
			}
		}
	}
}
