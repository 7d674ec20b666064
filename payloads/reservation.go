package payloads

import (
	"fmt"
	"strings"
	"time"

	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/models"
	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{"15:04", "15:04:05"}

type CreateReservationRequest struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Phone           string  `json:"phone" validate:"required,max=20"`
	Email           *string `json:"email"`
	ReservationDate string  `json:"reservation_date" validate:"required"`
	ReservationTime string  `json:"reservation_time" validate:"required"`
	PeopleCount     *int    `json:"people_count"`
	SpecialRequest  *string `json:"special_request"`
}

func (r *CreateReservationRequest) Validate() (models.Reservation, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	if err := validateStruct(r); err != nil {
		return models.Reservation{}, err
	}

	// browsers submit an empty input as ""
	email := optional(r.Email)
	if email != nil {
		if err := validate.Var(*email, "email,max=254"); err != nil {
			return models.Reservation{}, apperrors.ErrInvalidField.WithMessage("email must be a valid email address")
		}
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(r.ReservationDate))
	if err != nil {
		return models.Reservation{}, apperrors.ErrInvalidField.WithMessage("reservation_date must use the format YYYY-MM-DD")
	}

	clock, err := parseClock(strings.TrimSpace(r.ReservationTime))
	if err != nil {
		return models.Reservation{}, apperrors.ErrInvalidField.WithMessage("reservation_time must use the format HH:MM or HH:MM:SS")
	}

	if r.PeopleCount == nil {
		return models.Reservation{}, apperrors.ErrInvalidField.WithMessage("people_count is required")
	}
	if *r.PeopleCount <= 0 {
		return models.Reservation{}, apperrors.ErrInvalidField.WithMessage("people_count must be greater than 0")
	}

	return models.Reservation{
		Name:            r.Name,
		Phone:           r.Phone,
		Email:           email,
		ReservationDate: datatypes.Date(date),
		ReservationTime: datatypes.NewTime(clock.Hour(), clock.Minute(), clock.Second(), 0),
		PeopleCount:     *r.PeopleCount,
		SpecialRequest:  optional(r.SpecialRequest),
		Status:          models.ReservationStatusPending,
	}, nil
}

func parseClock(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

type ReservationStatusRequest struct {
	Status *string `json:"status"`
}

func (r *ReservationStatusRequest) Validate() (models.ReservationStatus, error) {
	if r.Status == nil || !models.ReservationStatus(*r.Status).IsValid() {
		return "", apperrors.ErrInvalidStatus
	}
	return models.ReservationStatus(*r.Status), nil
}

type ReservationResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           *string   `json:"email"`
	ReservationDate string    `json:"reservation_date"`
	ReservationTime string    `json:"reservation_time"`
	PeopleCount     int       `json:"people_count"`
	SpecialRequest  *string   `json:"special_request"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewReservationResponse(r models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		Name:            r.Name,
		Phone:           r.Phone,
		Email:           r.Email,
		ReservationDate: time.Time(r.ReservationDate).Format(dateLayout),
		ReservationTime: formatClock(r.ReservationTime),
		PeopleCount:     r.PeopleCount,
		SpecialRequest:  r.SpecialRequest,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
	}
}

func NewReservationListResponse(list []models.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, NewReservationResponse(r))
	}
	return out
}

func formatClock(t datatypes.Time) string {
	d := time.Duration(t)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func optional(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}
