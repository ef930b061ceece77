package domain

import "time"

// Tier is an ordered loyalty rank derived from accumulated points.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

type User struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Event struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	Date         time.Time `json:"date"`
	TicketPrice  uint64    `json:"ticket_price"`
	TotalTickets uint64    `json:"total_tickets"`
	TicketsSold  uint64    `json:"tickets_sold"`
}

type Ticket struct {
	ID           uint64    `json:"id"`
	EventID      uint64    `json:"event_id"`
	UserID       uint64    `json:"user_id"`
	PurchaseDate time.Time `json:"purchase_date"`
	SeatNumber   string    `json:"seat_number"`
	Price        uint64    `json:"price"`
}

// PointsTransaction is an append-only history entry inside a loyalty
// account. Points is negative for redemptions.
type PointsTransaction struct {
	Timestamp   time.Time `json:"timestamp"`
	Points      int64     `json:"points"`
	Description string    `json:"description"`
}

type LoyaltyAccount struct {
	UserID  uint64              `json:"user_id"`
	Points  uint64              `json:"points"`
	Tier    Tier                `json:"tier"`
	History []PointsTransaction `json:"points_history"`
}

type EventSeating struct {
	EventID       uint64   `json:"event_id"`
	VIPSeats      []string `json:"vip_seats"`
	PremiumSeats  []string `json:"premium_seats"`
	StandardSeats []string `json:"standard_seats"`
}

// EventCounts summarizes ticket availability for one event.
type EventCounts struct {
	Sold      uint64 `json:"sold"`
	Total     uint64 `json:"total"`
	Remaining uint64 `json:"remaining"`
}
