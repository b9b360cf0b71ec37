package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CUknot/chat_backend/controllers"
	"github.com/CUknot/chat_backend/database/dbtest"
	"github.com/CUknot/chat_backend/services"
	"github.com/CUknot/chat_backend/storage"
	"github.com/CUknot/chat_backend/stores"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	userStore := stores.NewGormUserStore(db)
	roomStore := stores.NewGormRoomStore(db)
	gate := services.NewAccessGate(roomStore)

	router := controllers.NewRouter(controllers.Deps{
		Auth:     services.NewAuthService(userStore, stores.NewGormTokenStore(db), "test-secret", time.Hour),
		Rooms:    services.NewRoomDirectory(roomStore, userStore, gate),
		Messages: services.NewMessageLog(stores.NewGormMessageStore(db), roomStore, blobs, gate),
		Logger:   zerolog.Nop(),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		MaxUploadBytes: 1 << 20,
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) json(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

func (s *testServer) multipart(path, token string, fields map[string]string, files map[string][]byte) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field+".bin")
		require.NoError(s.t, err)
		_, err = fw.Write(data)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, token)
}

type session struct {
	ID    uint
	Token string
}

func (s *testServer) signUp(username string) session {
	s.t.Helper()
	w := s.json(http.MethodPost, "/api/register", "", gin.H{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "s3cret",
		"confirm_password": "s3cret",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.json(http.MethodPost, "/api/auth/token", "", gin.H{"username": username, "password": "s3cret"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp controllers.TokenResponse
	decode(s.t, w, &resp)
	return session{ID: resp.UserID, Token: resp.Token}
}

func (s *testServer) openRoom(caller session, other uint) uint {
	s.t.Helper()
	w := s.json(http.MethodPost, "/api/rooms/create", caller.Token, gin.H{"user_id": other})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		RoomID uint `json:"room_id"`
	}
	decode(s.t, w, &resp)
	return resp.RoomID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, w, &body)
	return body["error"]
}

func TestConversationFlow(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp("alice")
	bob := srv.signUp("bob")

	roomID := srv.openRoom(alice, bob.ID)
	assert.Equal(t, roomID, srv.openRoom(bob, alice.ID), "either side resolves the same room")

	w := srv.json(http.MethodPost, "/api/messages", alice.Token, gin.H{"room": roomID, "content": "Hello, Bob!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sent controllers.MessagePayload
	decode(t, w, &sent)
	assert.True(t, sent.IsMe)
	assert.Equal(t, alice.ID, sent.Sender.ID)

	w = srv.json(http.MethodPost, "/api/messages", bob.Token, gin.H{"room_id": roomID, "content": "Hi Alice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = srv.json(http.MethodGet, fmt.Sprintf("/api/rooms/%d/messages", roomID), bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []controllers.MessagePayload
	decode(t, w, &history)
	require.Len(t, history, 2)
	assert.Equal(t, "Hello, Bob!", *history[0].Content)
	assert.False(t, history[0].IsMe)
	assert.True(t, history[1].IsMe)

	w = srv.json(http.MethodGet, fmt.Sprintf("/api/rooms/%d/messages?after_id=%d", roomID, history[0].ID), alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var newer []controllers.MessagePayload
	decode(t, w, &newer)
	require.Len(t, newer, 1)
	assert.Equal(t, history[1].ID, newer[0].ID)

	w = srv.json(http.MethodGet, "/api/rooms", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rooms []controllers.RoomPayload
	decode(t, w, &rooms)
	require.Len(t, rooms, 1)
	require.NotNil(t, rooms[0].LastMessage)
	assert.Equal(t, history[1].ID, rooms[0].LastMessage.ID)
	assert.Equal(t, "alice, bob", rooms[0].DisplayName)
}

func TestMessagesAreGated(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp("alice")
	bob := srv.signUp("bob")
	carol := srv.signUp("carol")

	roomID := srv.openRoom(alice, bob.ID)
	w := srv.json(http.MethodPost, "/api/messages", alice.Token, gin.H{"room": roomID, "content": "secret"})
	require.Equal(t, http.StatusCreated, w.Code)
	var sent controllers.MessagePayload
	decode(t, w, &sent)

	t.Run("outsider cannot read history", func(t *testing.T) {
		w := srv.json(http.MethodGet, fmt.Sprintf("/api/rooms/%d/messages", roomID), carol.Token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, services.ErrNotParticipant.Error(), errorBody(t, w))
	})

	t.Run("outsider cannot post", func(t *testing.T) {
		w := srv.json(http.MethodPost, "/api/messages", carol.Token, gin.H{"room": roomID, "content": "let me in"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("outsider cannot fetch a single message", func(t *testing.T) {
		w := srv.json(http.MethodGet, fmt.Sprintf("/api/messages/%d", sent.ID), carol.Token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("outsider sees nothing in the global feed", func(t *testing.T) {
		w := srv.json(http.MethodGet, "/api/messages", carol.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var msgs []controllers.MessagePayload
		decode(t, w, &msgs)
		assert.Empty(t, msgs)
	})

	t.Run("room filter on the feed is gated", func(t *testing.T) {
		w := srv.json(http.MethodGet, fmt.Sprintf("/api/messages?room=%d", roomID), carol.Token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("outsider cannot rename", func(t *testing.T) {
		w := srv.json(http.MethodPatch, fmt.Sprintf("/api/rooms/%d/update_name", roomID), carol.Token, gin.H{"name": "mine"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown room is 404", func(t *testing.T) {
		w := srv.json(http.MethodGet, "/api/rooms/9999", alice.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = srv.json(http.MethodPost, "/api/messages", alice.Token, gin.H{"room": 9999, "content": "hi"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id is 400", func(t *testing.T) {
		w := srv.json(http.MethodGet, "/api/rooms/abc", alice.Token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid room ID", errorBody(t, w))
	})
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp("alice")

	t.Run("missing token", func(t *testing.T) {
		w := srv.json(http.MethodGet, "/api/rooms", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := srv.json(http.MethodGet, "/api/rooms", "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := srv.json(http.MethodPost, "/api/auth/token", "", gin.H{"username": "alice", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("duplicate username", func(t *testing.T) {
		w := srv.json(http.MethodPost, "/api/register", "", gin.H{
			"username": "alice", "password": "x", "confirm_password": "x",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, services.ErrUsernameTaken.Error(), errorBody(t, w))
	})

	t.Run("password mismatch", func(t *testing.T) {
		w := srv.json(http.MethodPost, "/api/register", "", gin.H{
			"username": "dave", "password": "x", "confirm_password": "y",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, services.ErrPasswordMismatch.Error(), errorBody(t, w))
	})

	t.Run("token scheme is accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Token "+alice.Token)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		session := srv.signUp("erin")
		w := srv.json(http.MethodPost, "/api/auth/logout", session.Token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = srv.json(http.MethodGet, "/api/rooms", session.Token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCreateOrGetRoomValidation(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp("alice")
	bob := srv.signUp("bob")

	w := srv.json(http.MethodPost, "/api/rooms/create", alice.Token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "user_id is required", errorBody(t, w))

	w = srv.json(http.MethodPost, "/api/rooms/create", alice.Token, gin.H{"user_id": 4242})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.json(http.MethodPost, "/api/rooms/create", alice.Token, gin.H{"user_id": fmt.Sprint(bob.ID)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		RoomID  uint `json:"room_id"`
		Created bool `json:"created"`
	}
	decode(t, w, &resp)
	assert.True(t, resp.Created)

	w = srv.json(http.MethodPost, "/api/rooms/create", bob.Token, gin.H{"user_id": alice.ID})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.False(t, resp.Created)
}

func TestRenameRoom(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp("alice")
	bob := srv.signUp("bob")
	roomID := srv.openRoom(alice, bob.ID)
	path := fmt.Sprintf("/api/rooms/%d/update_name", roomID)

	w := srv.json(http.MethodPatch, path, bob.Token, gin.H{"name": "  Weekend plans  "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var room controllers.RoomPayload
	decode(t, w, &room)
	require.NotNil(t, room.Name)
	assert.Equal(t, "Weekend plans", *room.Name)
	assert.Equal(t, "Weekend plans", room.DisplayName)

	w = srv.json(http.MethodPatch, path, alice.Token, gin.H{"name": "   "})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &room)
	assert.Nil(t, room.Name)
	assert.Equal(t, "alice, bob", room.DisplayName)
}

func TestCreateRoomWithOnlyCaller(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp("alice")

	w := srv.json(http.MethodPost, "/api/rooms", alice.Token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var room controllers.RoomPayload
	decode(t, w, &room)
	require.Len(t, room.Users, 1)
	assert.Equal(t, alice.ID, room.Users[0].ID)
	assert.Nil(t, room.LastMessage)
}

func TestAttachments(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp("alice")
	bob := srv.signUp("bob")
	carol := srv.signUp("carol")
	roomID := srv.openRoom(alice, bob.ID)

	w := srv.multipart("/api/messages", alice.Token,
		map[string]string{"room": fmt.Sprint(roomID)},
		map[string][]byte{"image": pngHeader, "file": []byte("meeting notes")},
	)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var msg controllers.MessagePayload
	decode(t, w, &msg)
	assert.Nil(t, msg.Content)
	require.NotNil(t, msg.Image)
	require.NotNil(t, msg.File)
	assert.Equal(t, fmt.Sprintf("/api/messages/%d/image", msg.ID), *msg.Image)

	t.Run("participant downloads the image", func(t *testing.T) {
		w := srv.json(http.MethodGet, *msg.Image, bob.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, pngHeader, w.Body.Bytes())
	})

	t.Run("participant downloads the file", func(t *testing.T) {
		w := srv.json(http.MethodGet, *msg.File, bob.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;"))
		assert.Equal(t, "meeting notes", w.Body.String())
	})

	t.Run("outsider cannot download", func(t *testing.T) {
		w := srv.json(http.MethodGet, *msg.Image, carol.Token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown kind is 404", func(t *testing.T) {
		w := srv.json(http.MethodGet, fmt.Sprintf("/api/messages/%d/video", msg.ID), bob.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-image in image field is rejected", func(t *testing.T) {
		w := srv.multipart("/api/messages", alice.Token,
			map[string]string{"room": fmt.Sprint(roomID)},
			map[string][]byte{"image": []byte("plain text, not a picture")},
		)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, services.ErrNotAnImage.Error(), errorBody(t, w))
	})

	t.Run("empty message is rejected", func(t *testing.T) {
		w := srv.multipart("/api/messages", alice.Token,
			map[string]string{"room": fmt.Sprint(roomID), "content": "   "}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, services.ErrEmptyMessage.Error(), errorBody(t, w))
	})

	t.Run("oversized upload is 413", func(t *testing.T) {
		w := srv.multipart("/api/messages", alice.Token,
			map[string]string{"room": fmt.Sprint(roomID)},
			map[string][]byte{"file": bytes.Repeat([]byte("x"), 2<<20)},
		)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestUsers(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp("alice")
	bob := srv.signUp("bob")

	w := srv.json(http.MethodGet, "/api/users", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []controllers.UserPayload
	decode(t, w, &users)
	assert.Len(t, users, 2)
	assert.NotContains(t, w.Body.String(), "password")

	w = srv.json(http.MethodGet, fmt.Sprintf("/api/users/%d", bob.ID), alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var user controllers.UserPayload
	decode(t, w, &user)
	assert.Equal(t, "bob", user.Username)

	w = srv.json(http.MethodGet, "/api/users/4242", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	w := srv.json(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
