package amqp

import (
	"encoding/json"
	"time"

	"clubstats/internal/controller"
)

// Message types
const (
	MessageTypeDashboardView = "dashboard_view"
)

// CardTotals mirrors the three dashboard cards.
type CardTotals struct {
	Males   int64 `json:"males"`
	Females int64 `json:"females"`
	Total   int64 `json:"total"`
}

// YearPair carries a 2023 and a 2024 value for one club row.
type YearPair struct {
	Club  string  `json:"club"`
	Y2023 float64 `json:"2023"`
	Y2024 float64 `json:"2024"`
}

// DashboardViewMessage is published for every dashboard view the controller
// publishes. Consumers can rebuild the cards and charts from it.
type DashboardViewMessage struct {
	Type       string     `json:"type"`
	Version    uint64     `json:"version"`
	SelectAll  bool       `json:"select_all"`
	Clubs      []string   `json:"clubs"`
	Cards      CardTotals `json:"cards"`
	Membership []YearPair `json:"membership"`
	Sessions   []YearPair `json:"sessions"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewDashboardViewMessage builds a message from a published view.
func NewDashboardViewMessage(v controller.View) *DashboardViewMessage {
	msg := &DashboardViewMessage{
		Type:       MessageTypeDashboardView,
		Version:    v.Version,
		SelectAll:  v.Selection.All,
		Clubs:      append([]string{}, v.Selection.Clubs...),
		Cards:      CardTotals{Males: v.Cards.Males, Females: v.Cards.Females, Total: v.Cards.Total},
		Membership: make([]YearPair, 0, len(v.Membership)),
		Sessions:   make([]YearPair, 0, len(v.Sessions)),
		Timestamp:  v.ComputedAt,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	for _, m := range v.Membership {
		msg.Membership = append(msg.Membership, YearPair{Club: m.Club, Y2023: float64(m.Y2023), Y2024: float64(m.Y2024)})
	}
	for _, s := range v.Sessions {
		msg.Sessions = append(msg.Sessions, YearPair{Club: s.Club, Y2023: s.Y2023, Y2024: s.Y2024})
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *DashboardViewMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DashboardViewMessageFromJSON creates a message from JSON bytes
func DashboardViewMessageFromJSON(data []byte) (*DashboardViewMessage, error) {
	var msg DashboardViewMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
