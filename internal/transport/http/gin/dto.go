package httpgin

import "time"

type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

type CreateEventRequest struct {
	Name         string `json:"name" binding:"required"`
	Location     string `json:"location" binding:"required"`
	Date         string `json:"date" binding:"required"`
	TicketPrice  uint64 `json:"ticket_price" binding:"required,gt=0"`
	TotalTickets uint64 `json:"total_tickets" binding:"required,gt=0"`
}

type PurchaseTicketRequest struct {
	UserID     uint64 `json:"user_id" binding:"required"`
	SeatNumber string `json:"seat_number"`
}

type AwardPointsRequest struct {
	PurchaseAmount uint64 `json:"purchase_amount" binding:"required,gt=0"`
}

type RedeemPointsRequest struct {
	Points uint64 `json:"points" binding:"required,gt=0"`
}

type SetSeatingRequest struct {
	VIPSeats      []string `json:"vip_seats"`
	PremiumSeats  []string `json:"premium_seats"`
	StandardSeats []string `json:"standard_seats"`
}

type RedeemPointsResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
