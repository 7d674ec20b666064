package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/middlewares"
	"github.com/zemen-restaurant/zemen-backend/payloads"
	"github.com/zemen-restaurant/zemen-backend/services"
	"github.com/zemen-restaurant/zemen-backend/utils"
)

type AdminController struct {
	Auth *services.AuthService
}

func NewAdminController(auth *services.AuthService) *AdminController {
	return &AdminController{Auth: auth}
}

func (ac *AdminController) Login(c *gin.Context) {
	var req payloads.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		utils.RespondError(c, err)
		return
	}

	resp, err := ac.Auth.Login(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, resp)
}

func (ac *AdminController) Logout(c *gin.Context) {
	claims, ok := middlewares.ClaimsFrom(c)
	if !ok {
		utils.RespondError(c, apperrors.ErrUnauthorized)
		return
	}
	if err := ac.Auth.Logout(c.Request.Context(), claims); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"detail": "Logged out."})
}

func (ac *AdminController) Profile(c *gin.Context) {
	claims, ok := middlewares.ClaimsFrom(c)
	if !ok {
		utils.RespondError(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := ac.Auth.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, payloads.NewProfileResponse(*user))
}
