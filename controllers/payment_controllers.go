package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zemen-restaurant/zemen-backend/payloads"
	"github.com/zemen-restaurant/zemen-backend/utils"
)

type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64) (string, error)
}

type PaymentController struct {
	Payments IntentCreator
}

func NewPaymentController(payments IntentCreator) *PaymentController {
	return &PaymentController{Payments: payments}
}

func (pc *PaymentController) CreatePaymentIntent(c *gin.Context) {
	var req payloads.PaymentIntentRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	amount, err := req.Validate()
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	secret, err := pc.Payments.CreateIntent(c.Request.Context(), amount)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, payloads.PaymentIntentResponse{ClientSecret: secret})
}
