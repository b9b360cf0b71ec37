package controllers

import (
	"net/http"
	"time"

	"github.com/CUknot/chat_backend/middleware"
	"github.com/CUknot/chat_backend/services"
	"github.com/gin-gonic/gin"
)

type RegisterInput struct {
	Username        string `json:"username" binding:"required,max=150" example:"alice"`
	Email           string `json:"email" binding:"omitempty,email" example:"alice@example.com"`
	Password        string `json:"password" binding:"required" example:"s3cret"`
	ConfirmPassword string `json:"confirm_password" binding:"required" example:"s3cret"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"s3cret"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterInput true "Registration"
// @Success 201 {object} UserPayload
// @Failure 400 {object} map[string]string "Invalid input, passwords mismatch or username taken"
// @Router /api/register [post]
func (ctl *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ctl.auth.Register(c.Request.Context(), services.RegisterInput{
		Username:        input.Username,
		Email:           input.Email,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserPayload(*user))
}

// Login godoc
// @Summary Obtain an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginInput true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Bad credentials"
// @Router /api/auth/token [post]
func (ctl *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := ctl.auth.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Token:     session.Token,
		UserID:    session.User.ID,
		Email:     session.User.Email,
		Username:  session.User.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout godoc
// @Summary Revoke the presented access token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/auth/logout [post]
func (ctl *AuthController) Logout(c *gin.Context) {
	if err := ctl.auth.Logout(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
