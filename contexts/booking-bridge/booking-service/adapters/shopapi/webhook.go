package shopapi

import (
	"encoding/json"
	"fmt"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
)

// DecodeOrderWebhook maps an orders/create or orders/updated webhook body to
// the raw order entity. Webhook payloads use the same wire shape as the
// orders API, without the top-level wrapper object.
func DecodeOrderWebhook(body []byte) (entities.RawOrder, error) {
	var wire orderWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return entities.RawOrder{}, fmt.Errorf("decode order webhook: %w", err)
	}
	order := wire.toEntity()
	if order.ID == "" {
		return entities.RawOrder{}, fmt.Errorf("order webhook payload has no id")
	}
	return order, nil
}
