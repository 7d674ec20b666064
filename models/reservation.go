package models

import (
	"time"

	"gorm.io/datatypes"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCancelled:
		return true
	}
	return false
}

type Reservation struct {
	ID              uint              `gorm:"primaryKey"`
	Name            string            `gorm:"type:varchar(255);not null"`
	Phone           string            `gorm:"type:varchar(20);not null"`
	Email           *string           `gorm:"type:varchar(254)"`
	ReservationDate datatypes.Date    `gorm:"not null"`
	ReservationTime datatypes.Time    `gorm:"not null"`
	PeopleCount     int               `gorm:"not null"`
	SpecialRequest  *string           `gorm:"type:text"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt       time.Time         `gorm:"<-:create;not null;index"`
}
