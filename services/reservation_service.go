package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/events"
	"github.com/zemen-restaurant/zemen-backend/models"
	"github.com/zemen-restaurant/zemen-backend/payloads"
	"gorm.io/gorm"
)

type ReservationService struct {
	db     *gorm.DB
	events events.Publisher
	log    *logrus.Logger
}

func NewReservationService(db *gorm.DB, publisher events.Publisher, log *logrus.Logger) *ReservationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ReservationService{db: db, events: publisher, log: log}
}

// CreateReservation stores a new reservation. Callers cannot pick the
// initial status.
func (s *ReservationService) CreateReservation(ctx context.Context, res models.Reservation) (*models.Reservation, error) {
	res.ID = 0
	res.Status = models.ReservationStatusPending

	if err := s.db.WithContext(ctx).Create(&res).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create reservation: %w", err))
	}

	s.log.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"people_count":   res.PeopleCount,
	}).Info("Reservation created")

	s.events.Publish(ctx, events.New(events.ReservationCreated, reservationKey(res.ID), payloads.NewReservationResponse(res)))
	return &res, nil
}

func (s *ReservationService) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	list := make([]models.Reservation, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&list).Error
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list reservations: %w", err))
	}
	return list, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := s.db.WithContext(ctx).First(&res, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Reservation")
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to get reservation: %w", err))
	}
	return &res, nil
}

// UpdateReservationStatus reports a missing reservation before an invalid
// status. An invalid status leaves the stored row untouched.
func (s *ReservationService) UpdateReservationStatus(ctx context.Context, id uint, req payloads.ReservationStatusRequest) (*models.Reservation, error) {
	res, err := s.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	status, err := req.Validate()
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(res).Update("status", status).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update reservation status: %w", err))
	}
	res.Status = status

	s.log.WithFields(logrus.Fields{"reservation_id": res.ID, "status": status}).Info("Reservation status updated")
	s.events.Publish(ctx, events.New(events.ReservationStatusChanged, reservationKey(res.ID), payloads.NewReservationResponse(*res)))
	return res, nil
}

func reservationKey(id uint) string {
	return "reservation-" + strconv.FormatUint(uint64(id), 10)
}
