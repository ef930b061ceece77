package service

import (
	"github.com/venuegate/venuegate/internal/redisx"
	"github.com/venuegate/venuegate/internal/repository"
	redisrepo "github.com/venuegate/venuegate/internal/repository/redis"
	"github.com/venuegate/venuegate/internal/service/events"
	"github.com/venuegate/venuegate/internal/service/loyalty"
	"github.com/venuegate/venuegate/internal/service/tickets"
	"github.com/venuegate/venuegate/internal/service/users"
)

type Services struct {
	Users   *users.Service
	Events  *events.Service
	Tickets *tickets.Service
	Loyalty *loyalty.Service
}

type Config struct {
	Events events.Config
}

func NewServices(
	store *repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Users:   users.New(store),
		Events:  events.New(store, cache, pubsub, cfg.Events),
		Tickets: tickets.New(store, cache, pubsub, limiter),
		Loyalty: loyalty.New(store),
	}
}
