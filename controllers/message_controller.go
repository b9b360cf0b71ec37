package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/CUknot/chat_backend/middleware"
	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/services"
	"github.com/CUknot/chat_backend/stores"
	"github.com/gin-gonic/gin"
)

// CreateMessageInput is bound from JSON or from multipart form fields. The
// sender is never read from the request.
type CreateMessageInput struct {
	Room    uint   `json:"room" form:"room" example:"1"`
	RoomID  uint   `json:"room_id" form:"room_id" example:"1"`
	Content string `json:"content" form:"content" example:"Hello, everyone!"`
}

type MessagesQuery struct {
	Room uint `form:"room"`
}

type MessageController struct {
	messages       *services.MessageLog
	maxUploadBytes int64
}

func NewMessageController(messages *services.MessageLog, maxUploadBytes int64) *MessageController {
	return &MessageController{messages: messages, maxUploadBytes: maxUploadBytes}
}

// GetMessages godoc
// @Summary List messages
// @Description Returns messages from every room the caller participates in, or from one room when room is given
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param room query int false "Room ID"
// @Success 200 {array} MessagePayload
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/messages [get]
func (ctl *MessageController) GetMessages(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var query MessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return
	}

	var (
		messages []models.Message
		err      error
	)
	if query.Room != 0 {
		messages, err = ctl.messages.List(c.Request.Context(), userID, query.Room, stores.MessageQuery{})
	} else {
		messages, err = ctl.messages.ListForUser(c.Request.Context(), userID)
	}
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newMessagePayloads(messages, userID))
}

// CreateMessage godoc
// @Summary Create a new message
// @Description Sends a message as the caller. Multipart bodies may carry an image and/or a file.
// @Tags messages
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param room formData int true "Room ID"
// @Param content formData string false "Text content"
// @Param image formData file false "Image attachment"
// @Param file formData file false "File attachment"
// @Success 201 {object} MessagePayload
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Room not found"
// @Failure 413 {object} map[string]string "Upload too large"
// @Router /api/messages [post]
func (ctl *MessageController) CreateMessage(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if ctl.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ctl.maxUploadBytes)
	}

	var input CreateMessageInput
	if err := c.ShouldBind(&input); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			HandleServiceError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := input.Room
	if roomID == 0 {
		roomID = input.RoomID
	}

	var attachments []services.Attachment
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		for _, kind := range []string{models.AttachmentImage, models.AttachmentFile} {
			header, err := c.FormFile(kind)
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			if err != nil {
				HandleServiceError(c, err)
				return
			}
			file, err := header.Open()
			if err != nil {
				HandleServiceError(c, err)
				return
			}
			defer closeQuietly(file)
			attachments = append(attachments, services.Attachment{
				Kind:     kind,
				Filename: header.Filename,
				Size:     header.Size,
				Body:     file,
			})
		}
	}

	msg, err := ctl.messages.Append(c.Request.Context(), userID, services.AppendInput{
		RoomID:      roomID,
		Content:     input.Content,
		Attachments: attachments,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newMessagePayload(*msg, userID))
}

// GetMessage godoc
// @Summary Get a message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} MessagePayload
// @Failure 400 {object} map[string]string "Invalid message ID"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Message not found"
// @Router /api/messages/{id} [get]
func (ctl *MessageController) GetMessage(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	messageID, ok := parseID(c, "id", "message")
	if !ok {
		return
	}

	msg, err := ctl.messages.Get(c.Request.Context(), userID, messageID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newMessagePayload(*msg, userID))
}

// GetAttachment godoc
// @Summary Download a message attachment
// @Tags messages
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Param kind path string true "image or file"
// @Success 200 {file} file
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Attachment not found"
// @Router /api/messages/{id}/{kind} [get]
func (ctl *MessageController) GetAttachment(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	messageID, ok := parseID(c, "id", "message")
	if !ok {
		return
	}
	kind := c.Param("kind")
	if kind != models.AttachmentImage && kind != models.AttachmentFile {
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrAttachmentNotFound.Error()})
		return
	}

	stream, err := ctl.messages.OpenAttachment(c.Request.Context(), userID, messageID, kind)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	defer closeQuietly(stream.Body)

	disposition := "inline"
	if kind == models.AttachmentFile {
		disposition = "attachment"
	}
	c.DataFromReader(http.StatusOK, -1, stream.ContentType, stream.Body, map[string]string{
		"Content-Disposition": disposition + `; filename="` + stream.Name + `"`,
	})
}

func closeQuietly(f interface{ Close() error }) {
	_ = f.Close()
}
