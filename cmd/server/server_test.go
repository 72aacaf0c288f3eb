package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"

	"github.com/thereayou/streamhub/internal/config"
	"github.com/thereayou/streamhub/internal/database"
	"github.com/thereayou/streamhub/internal/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	srv  *Server
	http *httptest.Server
}

func newTestEnv(t *testing.T, withRedis bool) *testEnv {
	t.Helper()

	db, err := database.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.SetPool(1, 1, 0))
	require.NoError(t, db.Migrate())

	var rdb *redis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		AllowedOrigins: []string{"*"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(ctx, cfg, zap.NewNop(), db, rdb)
	hs := httptest.NewServer(srv.Router)

	t.Cleanup(func() {
		hs.Close()
		cancel()
		srv.Hub.Stop()
		srv.Close()
	})
	return &testEnv{srv: srv, http: hs}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}, headers ...string) (int, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.srv.Router.ServeHTTP(w, req)
	return w.Code, w.Body.Bytes()
}

func (e *testEnv) signup(t *testing.T, username string) (token string, userID uuid.UUID) {
	t.Helper()
	code, body := e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, code, string(body))

	var res struct {
		Token string `json:"token"`
		User  struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	return res.Token, res.User.ID
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, true)
	token, userID := env.signup(t, "alice")

	code, body := env.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, userID.String(), me["id"])
	assert.Equal(t, "alice", me["username"])
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "$2a$")

	code, _ = env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "alice2", "email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(body), "password")

	code, _ = env.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(t, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = env.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code, "revoked token is rejected")
}

func TestVideoFlow(t *testing.T) {
	env := newTestEnv(t, false)
	token, userID := env.signup(t, "creator")

	code, _ := env.do(t, http.MethodPost, "/videos", token, map[string]interface{}{"title": "no urls"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := env.do(t, http.MethodPost, "/videos", token, map[string]interface{}{
		"title":         "Intro",
		"description":   "first upload",
		"tags":          []string{"Go", "go", " demo "},
		"video_url":     "https://cdn.example.com/intro.mp4",
		"thumbnail_url": "https://cdn.example.com/intro.jpg",
	})
	require.Equal(t, http.StatusCreated, code, string(body))
	var video struct {
		ID    uuid.UUID `json:"id"`
		Tags  []string  `json:"tags"`
		Views int64     `json:"views"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
		LikeCount    int         `json:"like_count"`
		DislikeCount int         `json:"dislike_count"`
		Likes        []uuid.UUID `json:"likes"`
	}
	require.NoError(t, json.Unmarshal(body, &video))
	assert.Equal(t, []string{"go", "demo"}, video.Tags)
	assert.Equal(t, "creator", video.User.Username)
	videoPath := "/videos/" + video.ID.String()

	env.do(t, http.MethodGet, videoPath, "", nil)
	code, body = env.do(t, http.MethodGet, videoPath, "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &video))
	assert.EqualValues(t, 2, video.Views)

	code, body = env.do(t, http.MethodPost, videoPath+"/like", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &video))
	assert.Equal(t, 1, video.LikeCount)
	assert.Equal(t, []uuid.UUID{userID}, video.Likes)

	code, body = env.do(t, http.MethodPost, videoPath+"/dislike", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &video))
	assert.Equal(t, 0, video.LikeCount)
	assert.Equal(t, 1, video.DislikeCount)

	code, _ = env.do(t, http.MethodPost, "/videos/"+uuid.NewString()+"/like", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = env.do(t, http.MethodGet, "/videos/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = env.do(t, http.MethodPost, videoPath+"/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = env.do(t, http.MethodGet, "/videos?q=intro", "", nil)
	require.Equal(t, http.StatusOK, code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	code, _ = env.do(t, http.MethodGet, "/videos?page=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/videos/upload-url", token, map[string]string{
		"file_name": "clip.mp4", "content_type": "video/mp4",
	})
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestCommentFlow(t *testing.T) {
	env := newTestEnv(t, false)
	token, _ := env.signup(t, "commenter")

	code, body := env.do(t, http.MethodPost, "/videos", token, map[string]interface{}{
		"title":         "Talk",
		"video_url":     "https://cdn.example.com/talk.mp4",
		"thumbnail_url": "https://cdn.example.com/talk.jpg",
	})
	require.Equal(t, http.StatusCreated, code)
	var video struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &video))
	path := "/videos/" + video.ID.String() + "/comments"

	code, _ = env.do(t, http.MethodPost, path, token, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, code)

	for _, content := range []string{"first", "second"} {
		code, _ = env.do(t, http.MethodPost, path, token, map[string]string{"content": content})
		require.Equal(t, http.StatusCreated, code)
	}

	code, body = env.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, code)
	var comments []struct {
		Content string `json:"content"`
		User    struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &comments))
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Content)
	assert.Equal(t, "commenter", comments[0].User.Username)
}

func dialWS(t *testing.T, env *testEnv, token string) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws?token=" + token
	conn, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *gws.Conn, want websocket.MessageType) websocket.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg websocket.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return msg
		}
	}
}

func TestChatBroadcast(t *testing.T) {
	env := newTestEnv(t, false)
	tokenA, _ := env.signup(t, "alice")
	tokenB, userB := env.signup(t, "bob")

	connA := dialWS(t, env, tokenA)
	connB := dialWS(t, env, tokenB)

	require.NoError(t, connA.WriteJSON(websocket.Message{Type: websocket.TypeJoinRoom, RoomID: "room1"}))
	readUntil(t, connA, websocket.TypeRoomUsers)

	require.NoError(t, connB.WriteJSON(websocket.Message{Type: websocket.TypeJoinRoom, RoomID: "room1"}))
	users := readUntil(t, connB, websocket.TypeRoomUsers)
	var ids []uuid.UUID
	require.NoError(t, json.Unmarshal(users.Data, &ids))
	assert.Len(t, ids, 2)

	joined := readUntil(t, connA, websocket.TypeUserJoined)
	assert.Equal(t, userB, joined.UserID)

	code, body := env.do(t, http.MethodPost, "/chat/rooms/room1/messages", tokenA, map[string]string{"content": "hi"})
	require.Equal(t, http.StatusCreated, code, string(body))

	frame := readUntil(t, connB, websocket.TypeMessage)
	assert.Equal(t, "room1", frame.RoomID)
	var msg struct {
		Content string `json:"content"`
		User    struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "alice", msg.User.Username)

	code, body = env.do(t, http.MethodGet, "/chat/rooms/room1/messages", tokenB, nil)
	require.Equal(t, http.StatusOK, code)
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0]["content"])

	code, body = env.do(t, http.MethodGet, "/chat/rooms", "", nil)
	require.Equal(t, http.StatusOK, code)
	var rooms []struct {
		Name        string      `json:"name"`
		ActiveUsers []uuid.UUID `json:"active_users"`
	}
	require.NoError(t, json.Unmarshal(body, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "room1", rooms[0].Name)
	assert.Len(t, rooms[0].ActiveUsers, 2)

	// a blank message is rejected and never broadcast
	code, _ = env.do(t, http.MethodPost, "/chat/rooms/room1/messages", tokenA, map[string]string{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, code)

	// disconnect removes B from the room
	require.NoError(t, connB.Close())
	require.Eventually(t, func() bool {
		return len(env.srv.Hub.RoomUsers("room1")) == 1
	}, 3*time.Second, 20*time.Millisecond)
	readUntil(t, connA, websocket.TypeUserLeft)
}

func TestProtectedRoom(t *testing.T) {
	env := newTestEnv(t, false)
	token, _ := env.signup(t, "owner")

	code, body := env.do(t, http.MethodPost, "/chat/rooms", token, map[string]string{"name": "secret", "key": "open-sesame"})
	require.Equal(t, http.StatusCreated, code, string(body))
	assert.NotContains(t, string(body), "open-sesame")

	code, _ = env.do(t, http.MethodPost, "/chat/rooms", token, map[string]string{"name": "secret"})
	assert.Equal(t, http.StatusOK, code, "existing room is returned")

	code, _ = env.do(t, http.MethodPost, "/chat/rooms/secret/messages", token, map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodPost, "/chat/rooms/secret/messages", token,
		map[string]string{"content": "hi"}, "X-Room-Key", "open-sesame")
	assert.Equal(t, http.StatusCreated, code)

	code, _ = env.do(t, http.MethodGet, "/chat/rooms/secret/messages", token, nil, "X-Room-Key", "wrong")
	assert.Equal(t, http.StatusForbidden, code)

	conn := dialWS(t, env, token)
	require.NoError(t, conn.WriteJSON(websocket.Message{Type: websocket.TypeJoinRoom, RoomID: "secret"}))
	errFrame := readUntil(t, conn, websocket.TypeError)
	assert.Contains(t, string(errFrame.Data), "room key mismatch")

	require.NoError(t, conn.WriteJSON(websocket.Message{
		Type:   websocket.TypeJoinRoom,
		RoomID: "secret",
		Data:   json.RawMessage(`{"key":"open-sesame"}`),
	}))
	readUntil(t, conn, websocket.TypeRoomUsers)
}

func TestWebSocketRequiresToken(t *testing.T) {
	env := newTestEnv(t, false)
	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"
	_, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, false)
	code, _ := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, body := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "streamhub_http_requests_total")
}

func TestProtectedRoom_EvictsClientsThatJoinedBeforeCreation(t *testing.T) {
	env := newTestEnv(t, false)
	ownerToken, _ := env.signup(t, "owner")
	eveToken, _ := env.signup(t, "eve")

	eve := dialWS(t, env, eveToken)
	require.NoError(t, eve.WriteJSON(websocket.Message{Type: websocket.TypeJoinRoom, RoomID: "vault"}))
	readUntil(t, eve, websocket.TypeRoomUsers)
	require.Len(t, env.srv.Hub.RoomUsers("vault"), 1)

	code, body := env.do(t, http.MethodPost, "/chat/rooms", ownerToken, map[string]string{"name": "vault", "key": "k"})
	require.Equal(t, http.StatusCreated, code, string(body))

	evicted := readUntil(t, eve, websocket.TypeError)
	assert.Contains(t, string(evicted.Data), "room now requires a key")
	assert.Empty(t, env.srv.Hub.RoomUsers("vault"))

	code, body = env.do(t, http.MethodPost, "/chat/rooms/vault/messages", ownerToken,
		map[string]string{"content": "top secret"}, "X-Room-Key", "k")
	require.Equal(t, http.StatusCreated, code, string(body))

	// nothing else may arrive; the read ends with a timeout
	require.NoError(t, eve.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	for {
		var msg websocket.Message
		if err := eve.ReadJSON(&msg); err != nil {
			break
		}
		assert.NotEqual(t, websocket.TypeMessage, msg.Type, "keyless client received a protected-room message")
	}

	// rejoining without the key is refused
	eve2 := dialWS(t, env, eveToken)
	require.NoError(t, eve2.WriteJSON(websocket.Message{Type: websocket.TypeJoinRoom, RoomID: "vault"}))
	errFrame := readUntil(t, eve2, websocket.TypeError)
	assert.Contains(t, string(errFrame.Data), "room key mismatch")
}

func TestCreateRoom_KeyTooLong(t *testing.T) {
	env := newTestEnv(t, false)
	token, _ := env.signup(t, "owner")

	code, body := env.do(t, http.MethodPost, "/chat/rooms", token, map[string]string{
		"name": "r",
		"key":  strings.Repeat("k", 80),
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "VALIDATION_ERROR")

	code, _ = env.do(t, http.MethodGet, "/chat/rooms/r", "", nil)
	assert.Equal(t, http.StatusNotFound, code, "rejected request creates nothing")
}
