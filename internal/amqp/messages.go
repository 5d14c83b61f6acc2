package amqp

import (
	"encoding/json"
	"time"
)

// GoalEventMessage is the lightweight message published for every recorded
// contribution. It carries identifiers only; the report worker fetches the
// full goal from the database so it always exports current state.
type GoalEventMessage struct {
	GoalID      string    `json:"goal_id"`
	OwnerID     string    `json:"owner_id"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewGoalEventMessage(goalID, ownerID, kind string, amountCents int64) *GoalEventMessage {
	return &GoalEventMessage{
		GoalID:      goalID,
		OwnerID:     ownerID,
		Kind:        kind,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

func (m *GoalEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func GoalEventMessageFromJSON(data []byte) (*GoalEventMessage, error) {
	var msg GoalEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
