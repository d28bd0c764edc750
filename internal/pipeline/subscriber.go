package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis/v8"
)

// Subscribe feeds samples published as JSON on a Redis channel until ctx
// is done or the subscription closes. Malformed messages are logged and
// dropped. ready, if non-nil, is closed once the subscription is confirmed.
func (p *Pipeline) Subscribe(ctx context.Context, rdb *goredis.Client, channel string, ready chan<- struct{}) error {
	log := slog.Default().With(slog.String("component", "pipeline"), slog.String("channel", channel))

	pubsub := rdb.Subscribe(ctx, channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	log.Info("subscribed to samples")
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var s Sample
			if err := json.Unmarshal([]byte(msg.Payload), &s); err != nil {
				log.Warn("dropping malformed sample", slog.Any("error", err))
				continue
			}
			if err := p.Feed(s); err != nil {
				if errors.Is(err, ErrBadSample) {
					log.Warn("dropping sample", slog.Any("error", err))
					continue
				}
				return err
			}
		}
	}
}
