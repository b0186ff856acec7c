package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ inventory.AlertPublisher = (*AlertPublisher)(nil)

// Publisher subconjunto de *goredis.Client que usa el publicador.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
}

// AlertMessage cuerpo publicado por cada escaneo con alertas.
type AlertMessage struct {
	TenantID    string                 `json:"tenant_id"`
	Alerts      []entity.LowStockAlert `json:"alerts"`
	PublishedAt time.Time              `json:"published_at"`
}

// AlertPublisher publica las alertas de stock bajo en el canal <prefijo>:<tenant>.
type AlertPublisher struct {
	rdb    Publisher
	prefix string
	now    func() time.Time
}

// NewAlertPublisher construye el publicador. prefix vacío usa "lowstock".
func NewAlertPublisher(rdb Publisher, prefix string) *AlertPublisher {
	if prefix == "" {
		prefix = "lowstock"
	}
	return &AlertPublisher{rdb: rdb, prefix: prefix, now: func() time.Time { return time.Now().UTC() }}
}

// Channel canal de notificaciones del tenant.
func (p *AlertPublisher) Channel(tenantID string) string {
	return p.prefix + ":" + tenantID
}

func (p *AlertPublisher) Publish(ctx context.Context, tenantID string, alerts []entity.LowStockAlert) error {
	payload, err := json.Marshal(AlertMessage{TenantID: tenantID, Alerts: alerts, PublishedAt: p.now()})
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.Channel(tenantID), payload).Err(); err != nil {
		return fmt.Errorf("publish alerts: %w", err)
	}
	return nil
}
