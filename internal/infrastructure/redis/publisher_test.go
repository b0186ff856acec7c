package redis_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
)

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message any) *goredis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := goredis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestAlertPublisher_PublicaEnCanalDelTenant(t *testing.T) {
	fake := &fakePublisher{}
	p := redis.NewAlertPublisher(fake, "alerts")
	alerts := []entity.LowStockAlert{{
		TenantID: "t1", ItemID: "i1", SKU: "TOR-01", ItemName: "Tornillo",
		AggregateStock: decimal.NewFromInt(3), MinStock: decimal.NewFromInt(5), Deficiency: decimal.NewFromInt(2),
	}}

	require.NoError(t, p.Publish(context.Background(), "t1", alerts))
	assert.Equal(t, "alerts:t1", fake.channel)

	var msg redis.AlertMessage
	require.NoError(t, json.Unmarshal(fake.payload, &msg))
	assert.Equal(t, "t1", msg.TenantID)
	require.Len(t, msg.Alerts, 1)
	assert.Equal(t, "TOR-01", msg.Alerts[0].SKU)
	assert.True(t, msg.Alerts[0].Deficiency.Equal(decimal.NewFromInt(2)))
	assert.False(t, msg.PublishedAt.IsZero())
}

func TestAlertPublisher_PrefijoPorDefecto(t *testing.T) {
	p := redis.NewAlertPublisher(&fakePublisher{}, "")
	assert.Equal(t, "lowstock:t9", p.Channel("t9"))
}

func TestAlertPublisher_PropagaErrorDeRedis(t *testing.T) {
	boom := errors.New("connection refused")
	p := redis.NewAlertPublisher(&fakePublisher{err: boom}, "")
	err := p.Publish(context.Background(), "t1", []entity.LowStockAlert{{ItemID: "i1"}})
	assert.ErrorIs(t, err, boom)
}
