package logging_test

import (
	"context"
	"testing"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/events/logging"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishLogsPayload(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	pub := logging.NewPublisher(zap.New(core))

	err := pub.Publish(context.Background(), "t1", events.TransferCompleted{
		TransactionID: "t1",
		Amount:        decimal.RequireFromString("200.00"),
	})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "t1", fields["key"])
	assert.Contains(t, fields["payload"], `"transaction_id":"t1"`)
	assert.Contains(t, fields["payload"], `"amount":"200"`)
}
