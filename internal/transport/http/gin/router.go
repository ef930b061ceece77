package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	redisrepo "github.com/venuegate/venuegate/internal/repository/redis"
	"github.com/venuegate/venuegate/internal/service"
	"github.com/venuegate/venuegate/internal/service/events"
	"github.com/venuegate/venuegate/internal/service/loyalty"
	"github.com/venuegate/venuegate/internal/service/tickets"
	"github.com/venuegate/venuegate/internal/service/users"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.POST("/users", handleRegisterUser(svcs))
	r.GET("/users/:id/tickets", handleListUserTickets(svcs))

	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))
	r.GET("/events/:id/availability", handleGetAvailability(svcs))
	r.GET("/events/:id/seating", handleGetSeating(svcs))

	r.POST("/events/:id/tickets", handlePurchaseTicket(svcs, idem, false))
	r.POST("/events/:id/tickets/dynamic", handlePurchaseTicket(svcs, idem, true))

	r.GET("/loyalty/:user_id", handleGetLoyalty(svcs))
	r.POST("/loyalty/:user_id/award", handleAwardPoints(svcs))
	r.POST("/loyalty/:user_id/redeem", handleRedeemPoints(svcs))

	// Admin-API
	// TODO: add admin middleware
	admin := r.Group("/admin")
	{
		admin.POST("/events", handleCreateEvent(svcs))
		admin.PUT("/events/:id/seating", handleSetSeating(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Register user
// @Param    req body  RegisterUserRequest true "payload"
// @Success  201 {object} domain.User
// @Failure  400 {object} ErrorResponse
// @Router   /users [post]
func handleRegisterUser(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		u, err := svcs.Users.Register(c.Request.Context(), req.Username, req.Email)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

// @Summary  List a user's tickets
// @Param    id  path  int  true  "User ID"
// @Success  200 {array} domain.Ticket
// @Router   /users/{id}/tickets [get]
func handleListUserTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUint64Param(c, "id")
		if !ok {
			return
		}
		list, err := svcs.Tickets.ListForUser(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  List all events
// @Success  200 {array} domain.Event
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Events.List(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, list, "public, max-age=15", true)
	}
}

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200 {object} domain.Event
// @Failure  404 {object} ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUint64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Events.Get(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, e, "public, max-age=60", true)
	}
}

// @Summary  Get availability counters
// @Param    id  path  int  true  "Event ID"
// @Success  200 {object} domain.EventCounts
// @Router   /events/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUint64Param(c, "id")
		if !ok {
			return
		}
		cnt, err := svcs.Events.Availability(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, cnt, "public, max-age=15", true)
	}
}

// @Summary  Get event seating
// @Param    id  path  int  true  "Event ID"
// @Success  200 {object} domain.EventSeating
// @Failure  404 {object} ErrorResponse
// @Router   /events/{id}/seating [get]
func handleGetSeating(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUint64Param(c, "id")
		if !ok {
			return
		}
		seating, err := svcs.Events.GetSeating(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, seating, "public, max-age=60", true)
	}
}

// @Summary  Purchase ticket (idempotent)
// @Param    id  path  int  true  "Event ID"
// @Param    req body  PurchaseTicketRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} domain.Ticket
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "event not found"
// @Failure  409 {object} ErrorResponse "sold out / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /events/{id}/tickets [post]
func handlePurchaseTicket(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	dynamic bool,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUint64Param(c, "id")
		if !ok {
			return
		}
		var req PurchaseTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPurchase(eventID, idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		purchase := svcs.Tickets.Purchase
		if dynamic {
			purchase = svcs.Tickets.PurchaseDynamic
		}

		ticket, err := purchase(
			c.Request.Context(),
			eventID,
			req.UserID,
			req.SeatNumber,
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if isRateLimitedErr(err) {
				c.Header("Retry-After", "60")
				c.JSON(
					http.StatusTooManyRequests,
					ErrorResponse{Error: err.Error()},
				)
				return
			}
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(ticket)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, ticket)
	}
}

// @Summary  Get loyalty account
// @Param    user_id  path  int  true  "User ID"
// @Success  200 {object} domain.LoyaltyAccount
// @Failure  404 {object} ErrorResponse
// @Router   /loyalty/{user_id} [get]
func handleGetLoyalty(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUint64Param(c, "user_id")
		if !ok {
			return
		}
		acc, err := svcs.Loyalty.Get(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, acc)
	}
}

// @Summary  Award loyalty points
// @Param    user_id  path  int  true  "User ID"
// @Param    req body  AwardPointsRequest true "payload"
// @Success  200 {object} domain.LoyaltyAccount
// @Failure  400 {object} ErrorResponse
// @Router   /loyalty/{user_id}/award [post]
func handleAwardPoints(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUint64Param(c, "user_id")
		if !ok {
			return
		}
		var req AwardPointsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		acc, err := svcs.Loyalty.Award(c.Request.Context(), userID, req.PurchaseAmount)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, acc)
	}
}

// @Summary  Redeem loyalty points
// @Param    user_id  path  int  true  "User ID"
// @Param    req body  RedeemPointsRequest true "payload"
// @Success  200 {object} RedeemPointsResponse
// @Failure  404 {object} ErrorResponse "no loyalty account"
// @Failure  409 {object} ErrorResponse "insufficient points"
// @Router   /loyalty/{user_id}/redeem [post]
func handleRedeemPoints(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUint64Param(c, "user_id")
		if !ok {
			return
		}
		var req RedeemPointsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Loyalty.Redeem(c.Request.Context(), userID, req.Points); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, RedeemPointsResponse{
			Message: "Points successfully redeemed!",
		})
	}
}

// @Summary  Create event
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} domain.Event
// @Failure  400 {object} ErrorResponse
// @Router   /admin/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		date, err := parseRFC3339(req.Date)
		if err != nil {
			badRequest(c, "invalid date (RFC3339)")
			return
		}
		e, err := svcs.Events.Create(
			c.Request.Context(),
			req.Name,
			req.Location,
			date,
			req.TicketPrice,
			req.TotalTickets,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, e)
	}
}

// @Summary  Set event seating
// @Param    id  path  int  true  "Event ID"
// @Param    req body  SetSeatingRequest true "payload"
// @Success  200 {object} domain.EventSeating
// @Failure  404 {object} ErrorResponse
// @Router   /admin/events/{id}/seating [put]
func handleSetSeating(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUint64Param(c, "id")
		if !ok {
			return
		}
		var req SetSeatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		seating, err := svcs.Events.SetSeating(
			c.Request.Context(),
			eventID,
			req.VIPSeats,
			req.PremiumSeats,
			req.StandardSeats,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, seating)
	}
}

// --- Helpers ---

func parseUint64Param(c *gin.Context, name string) (uint64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func isRateLimitedErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "rate limited")
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// invalid payloads
	case errors.Is(err, users.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing required fields"})
		return
	case errors.Is(err, events.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing required fields"})
		return
	case errors.Is(err, tickets.ErrSeatRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "seat number is required"})
		return
	// missing entities
	case errors.Is(err, events.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, tickets.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, events.ErrSeatingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event seating not found"})
		return
	case errors.Is(err, loyalty.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "loyalty account not found"})
		return
	// business-rule violations
	case errors.Is(err, tickets.ErrSoldOut):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no tickets available"})
		return
	case errors.Is(err, loyalty.ErrInsufficientPoints):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "insufficient points"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
