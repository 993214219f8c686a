package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// ChangeMessage announces that an owner's collection changed. It carries no
// record data; consumers refetch what they need.
type ChangeMessage struct {
	OwnerID    string          `json:"owner_id"`
	Collection core.Collection `json:"collection"`
	Timestamp  time.Time       `json:"timestamp"`
}

func NewChangeMessage(ownerID string, c core.Collection) *ChangeMessage {
	return &ChangeMessage{
		OwnerID:    ownerID,
		Collection: c,
		Timestamp:  time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" {
		return nil, fmt.Errorf("%w: change message without owner", core.ErrInvalidArgument)
	}
	return &msg, nil
}
