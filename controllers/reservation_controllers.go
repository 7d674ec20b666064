package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zemen-restaurant/zemen-backend/payloads"
	"github.com/zemen-restaurant/zemen-backend/services"
	"github.com/zemen-restaurant/zemen-backend/utils"
)

type ReservationController struct {
	Reservations *services.ReservationService
}

func NewReservationController(reservations *services.ReservationService) *ReservationController {
	return &ReservationController{Reservations: reservations}
}

func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req payloads.CreateReservationRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	res, err := req.Validate()
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	created, err := rc.Reservations.CreateReservation(c.Request.Context(), res)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, payloads.NewReservationResponse(*created))
}

func (rc *ReservationController) GetAllReservations(c *gin.Context) {
	list, err := rc.Reservations.ListReservations(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, payloads.NewReservationListResponse(list))
}

// UpdateReservationStatus looks the reservation up before reading the body,
// so an unknown id is a 404 whatever the payload.
func (rc *ReservationController) UpdateReservationStatus(c *gin.Context) {
	id, err := pathID(c, "Reservation")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if _, err := rc.Reservations.GetReservation(c.Request.Context(), id); err != nil {
		utils.RespondError(c, err)
		return
	}

	var req payloads.ReservationStatusRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	res, err := rc.Reservations.UpdateReservationStatus(c.Request.Context(), id, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, payloads.NewReservationResponse(*res))
}
