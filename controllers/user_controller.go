package controllers

import (
	"net/http"

	"github.com/CUknot/chat_backend/services"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	auth *services.AuthService
}

func NewUserController(auth *services.AuthService) *UserController {
	return &UserController{auth: auth}
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserPayload
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/users [get]
func (ctl *UserController) ListUsers(c *gin.Context) {
	users, err := ctl.auth.ListUsers(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserPayloads(users))
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} UserPayload
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Failure 404 {object} map[string]string "User not found"
// @Router /api/users/{id} [get]
func (ctl *UserController) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}
	user, err := ctl.auth.GetUser(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserPayload(*user))
}
