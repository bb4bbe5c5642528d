package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/storage"
)

// FuelService manages the standalone fuel log. Entries never touch wallets
// or budgets; distance, total cost and consumption derive from the stored
// readings.
type FuelService struct {
	repo   *storage.SQLiteRepository
	events *amqp.Client
}

func NewFuelService(repo *storage.SQLiteRepository, events *amqp.Client) *FuelService {
	return &FuelService{repo: repo, events: events}
}

// CreateFuelLogInput carries the raw readings of a fill-up.
type CreateFuelLogInput struct {
	VehicleType   string
	FuelType      string
	InitialKM     float64
	FinalKM       float64
	PricePerLiter core.Money
	Liters        float64
}

func (s *FuelService) CreateFuelLog(ctx context.Context, in CreateFuelLogInput) (core.FuelLog, error) {
	candidate := core.FuelLog{
		VehicleType:   in.VehicleType,
		FuelType:      in.FuelType,
		InitialKM:     in.InitialKM,
		FinalKM:       in.FinalKM,
		PricePerLiter: in.PricePerLiter,
		Liters:        in.Liters,
	}
	if err := candidate.Validate(); err != nil {
		return core.FuelLog{}, err
	}

	created, err := s.repo.Queries().CreateFuelLog(ctx, storage.CreateFuelLogParams{
		VehicleType:        in.VehicleType,
		FuelType:           in.FuelType,
		InitialKM:          in.InitialKM,
		FinalKM:            in.FinalKM,
		PricePerLiterCents: in.PricePerLiter.Cents,
		Liters:             in.Liters,
	})
	if err != nil {
		return core.FuelLog{}, err
	}

	s.publishEvent(ctx, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *FuelService) ListFuelLogs(ctx context.Context) ([]core.FuelLog, error) {
	return s.repo.Queries().ListFuelLogs(ctx)
}

func (s *FuelService) DeleteFuelLog(ctx context.Context, id int64) error {
	if err := s.repo.Queries().DeleteFuelLog(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrFuelLogNotFound
		}
		return err
	}
	s.publishEvent(ctx, amqp.ActionDeleted, id)
	return nil
}

// publishEvent mirrors LedgerService: the event is a refresh hint, so a
// publish failure is logged, never returned.
func (s *FuelService) publishEvent(ctx context.Context, action string, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, amqp.EntityFuelLog, action, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"entity", amqp.EntityFuelLog, "action", action, "id", id, "error", err)
	}
}
