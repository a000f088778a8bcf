package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/till_shop/pkg/events"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	"github.com/Skotchmaster/till_shop/services/sales/internal/transport"
)

const orderCreated = "order_created"

type orderEvent struct {
	transport.LiveEvent
	OwnerID string `json:"owner_id"`
}

// Feed relays order_created events from the order topic to the owner's
// connected clients. Other event types are skipped.
func Feed(h *Hub) events.HandlerFunc {
	return func(ctx context.Context, msg kafka.Message) error {
		var ev orderEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			return fmt.Errorf("decode order event at offset %d: %w", msg.Offset, err)
		}
		if ev.Type != orderCreated {
			return nil
		}
		owner, err := uuid.Parse(ev.OwnerID)
		if err != nil {
			return fmt.Errorf("order event %s: bad owner id: %w", ev.OrderID, err)
		}

		payload, err := json.Marshal(ev.LiveEvent)
		if err != nil {
			return err
		}
		n := h.Publish(owner, payload)
		logging.FromContext(ctx).Debug("live_order_pushed", "order_id", ev.OrderID, "clients", n)
		return nil
	}
}
