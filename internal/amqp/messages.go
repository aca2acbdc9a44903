package amqp

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// RefreshMessage asks the worker to re-fetch the upstream dataset and
// replace the stored snapshot. It carries no data.
type RefreshMessage struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewRefreshMessage(reason string) *RefreshMessage {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "manual"
	}
	return &RefreshMessage{Reason: reason, RequestedAt: time.Now().UTC()}
}

func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON decodes a message; a zero request time is invalid.
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Wrap(err, "decode refresh message")
	}
	if msg.RequestedAt.IsZero() {
		return nil, errors.New("refresh message without requested_at")
	}
	return &msg, nil
}
