package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirinyoku/eventix/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ChangesPubSub publishes committed mutations on a single channel.
type ChangesPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewChangesPubSub(rdb *redis.Client) *ChangesPubSub {
	return &ChangesPubSub{
		rdb:     rdb,
		channel: ChannelChanges(),
	}
}

// ChangeMessage is the JSON payload sent on the changes channel.
type ChangeMessage struct {
	Type     string `json:"type"`
	EventID  int64  `json:"event_id"`
	TicketID int64  `json:"ticket_id,omitempty"`
	TsUnix   int64  `json:"ts_unix"`
}

func (p *ChangesPubSub) Publish(ctx context.Context, c domain.Change) error {
	const op = "redisrepo.ChangesPubSub.Publish"

	b, err := json.Marshal(ChangeMessage{
		Type:     string(c.Type),
		EventID:  c.EventID,
		TicketID: c.TicketID,
		TsUnix:   time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
