package logging

import (
	"context"
	"encoding/json"

	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"go.uber.org/zap"
)

// Publisher logs events instead of sending them anywhere. It is used when no
// message broker is configured.
type Publisher struct {
	log *zap.Logger
}

func NewPublisher(log *zap.Logger) *Publisher {
	return &Publisher{log: log}
}

func (p *Publisher) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	p.log.Info("event", zap.String("key", key), zap.ByteString("payload", data))
	return nil
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
