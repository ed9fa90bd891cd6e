// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the notification consumer.
package queue

// Queue names.  Each event type has its own durable queue on the default
// exchange.
const (
    LeadCreatedQueue  = "lead.created"
    CarModeratedQueue = "car.moderated"
)

// LeadCreatedEvent is published after a customer inquiry is stored.  It
// carries the car snapshot so consumers can notify staff without querying
// the database.
type LeadCreatedEvent struct {
    LeadID    uint64  `json:"lead_id"`
    CarID     uint64  `json:"car_id"`
    CarTitle  string  `json:"car_title"`
    CarPrice  float64 `json:"car_price"`
    Name      string  `json:"name"`
    Phone     string  `json:"phone"`
    Email     string  `json:"email,omitempty"`
    CreatedAt string  `json:"created_at"`
}

// CarModeratedEvent is published when an admin changes a listing's
// moderation status.
type CarModeratedEvent struct {
    CarID            uint64 `json:"car_id"`
    Title            string `json:"title"`
    OwnerID          uint64 `json:"owner_id"`
    OwnerEmail       string `json:"owner_email,omitempty"`
    ModerationStatus string `json:"moderation_status"`
    Comment          string `json:"comment,omitempty"`
    ModeratedAt      string `json:"moderated_at"`
}
