package usecase

import (
	"time"

	"clinic-booking/internal/data/repository"
	"clinic-booking/pkg/redislock"

	"go.uber.org/zap"
)

type Service struct {
	Booking   BookingService
	Lifecycle LifecycleService
	Query     QueryService
}

// NewService wires the core. loc is the clinic timezone used for "today"
// and for slot start times; locker may be nil.
func NewService(repo *repository.Repository, locker redislock.Locker, loc *time.Location, log *zap.Logger) *Service {
	return &Service{
		Booking:   NewBookingService(repo, locker, loc, log),
		Lifecycle: NewLifecycleService(repo, loc, log),
		Query:     NewQueryService(repo.Appointment, log),
	}
}
