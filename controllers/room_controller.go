package controllers

import (
	"net/http"

	"github.com/CUknot/chat_backend/middleware"
	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/services"
	"github.com/CUknot/chat_backend/stores"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type CreateOrGetRoomInput struct {
	UserID *FlexibleID `json:"user_id" swaggertype:"integer" example:"2"`
	Name   string      `json:"name" example:"Weekend plans"`
}

type UpdateRoomNameInput struct {
	Name string `json:"name" example:"Updated Chat Room"`
}

type RoomMessagesQuery struct {
	AfterID uint `form:"after_id"`
	Limit   int  `form:"limit"`
}

type RoomController struct {
	rooms    *services.RoomDirectory
	messages *services.MessageLog
}

func NewRoomController(rooms *services.RoomDirectory, messages *services.MessageLog) *RoomController {
	return &RoomController{rooms: rooms, messages: messages}
}

// GetRooms godoc
// @Summary Get all rooms for the authenticated user
// @Description Returns the rooms the caller participates in, each with its latest message
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RoomPayload
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/rooms [get]
func (ctl *RoomController) GetRooms(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	rooms, err := ctl.rooms.ListRooms(ctx, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ids := lo.Map(rooms, func(r models.Room, _ int) uint { return r.ID })
	latest, err := ctl.messages.LatestForRooms(ctx, ids)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	response := lo.Map(rooms, func(r models.Room, _ int) RoomPayload {
		var last *models.Message
		if m, ok := latest[r.ID]; ok {
			last = &m
		}
		return newRoomPayload(r, last, userID)
	})
	c.JSON(http.StatusOK, response)
}

// CreateRoom godoc
// @Summary Create a new chat room
// @Description Creates a room whose only participant is the caller
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Success 201 {object} RoomPayload
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/rooms [post]
func (ctl *RoomController) CreateRoom(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	room, err := ctl.rooms.CreateRoom(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newRoomPayload(*room, nil, userID))
}

// CreateOrGetRoom godoc
// @Summary Resolve or create a two-party room
// @Description Returns the room shared by the caller and user_id, creating it on first use
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param room body CreateOrGetRoomInput true "Other participant"
// @Success 200 {object} map[string]interface{} "room_id and whether it was created"
// @Failure 400 {object} map[string]string "user_id is required"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Router /api/rooms/create [post]
func (ctl *RoomController) CreateOrGetRoom(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input CreateOrGetRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.UserID == nil || *input.UserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	room, created, err := ctl.rooms.ResolveOrCreate(c.Request.Context(), userID, uint(*input.UserID), input.Name)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": room.ID, "created": created})
}

// GetRoom godoc
// @Summary Get details of a specific room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} RoomPayload
// @Failure 400 {object} map[string]string "Invalid room ID"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /api/rooms/{id} [get]
func (ctl *RoomController) GetRoom(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	roomID, ok := parseID(c, "id", "room")
	if !ok {
		return
	}

	room, err := ctl.rooms.GetRoom(c.Request.Context(), userID, roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	last, err := ctl.messages.Latest(c.Request.Context(), room.ID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRoomPayload(*room, last, userID))
}

// GetRoomMessages godoc
// @Summary Get messages of a room
// @Description Returns the room's messages oldest first; after_id returns only newer ones
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param after_id query int false "Only messages with a greater ID"
// @Param limit query int false "Maximum number of messages"
// @Success 200 {array} MessagePayload
// @Failure 400 {object} map[string]string "Invalid room ID"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /api/rooms/{id}/messages [get]
func (ctl *RoomController) GetRoomMessages(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	roomID, ok := parseID(c, "id", "room")
	if !ok {
		return
	}

	var query RoomMessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages, err := ctl.messages.List(c.Request.Context(), userID, roomID, stores.MessageQuery{
		AfterID: query.AfterID,
		Limit:   query.Limit,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newMessagePayloads(messages, userID))
}

// UpdateRoomName godoc
// @Summary Rename a room
// @Description Sets the room name; a blank name clears it
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param room body UpdateRoomNameInput true "New name"
// @Success 200 {object} RoomPayload
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /api/rooms/{id}/update_name [patch]
func (ctl *RoomController) UpdateRoomName(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	roomID, ok := parseID(c, "id", "room")
	if !ok {
		return
	}

	var input UpdateRoomNameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := ctl.rooms.Rename(c.Request.Context(), userID, roomID, input.Name)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	last, err := ctl.messages.Latest(c.Request.Context(), room.ID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRoomPayload(*room, last, userID))
}
