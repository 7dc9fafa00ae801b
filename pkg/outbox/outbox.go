package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
)

// DomainEvent is what services enqueue. The envelope written to the
// outbox table carries it plus routing metadata.
type DomainEvent struct {
	Type        string    `json:"type"`
	AggregateID uuid.UUID `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Data        any       `json:"data"`
}

// Enqueue writes the event into outbox_events inside the caller's
// transaction. The publisher process delivers it afterwards.
func Enqueue(tx *gorm.DB, event DomainEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outbox event: %w", err)
	}

	row := models.OutboxEvent{
		ID:          uuid.New(),
		EventType:   event.Type,
		AggregateID: event.AggregateID,
		Payload:     payload,
		Status:      enums.OutboxStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
