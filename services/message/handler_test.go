package message

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chamber122/pkg/middleware"
	"chamber122/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, f *fixture) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(f.svc)
	r := gin.New()
	r.Use(middleware.Error())
	r.Use(func(c *gin.Context) {
		if user := c.GetHeader("X-User"); user != "" {
			session.SetCurrent(c, &session.Principal{UserID: user, Role: session.RoleMember})
		}
		c.Next()
	})

	g := r.Group("/api/messages", session.RequireSession())
	g.GET("/conversations", h.List)
	g.POST("/conversations", h.Start)
	g.GET("/conversations/:id", h.Get)
	g.POST("", h.Send)
	g.GET("/unread", h.Unread)
	return r
}

func do(t *testing.T, r http.Handler, method, path, user string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestConversationOverHTTP(t *testing.T) {
	f := newFixture(t, nil)
	r := newTestRouter(t, f)
	f.owner(t, "alice", "Alice Bakery")
	f.user(t, "bob", "Bob", "bob@example.com")

	w, _ := do(t, r, http.MethodGet, "/api/messages/conversations", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, out := do(t, r, http.MethodPost, "/api/messages/conversations", "bob", map[string]any{"other_user_id": "alice"})
	require.Equal(t, http.StatusCreated, w.Code)
	conv := out["conversation"].(map[string]any)
	convID := conv["id"].(string)
	other := conv["other_participant"].(map[string]any)
	require.Equal(t, "business", other["type"])

	w, _ = do(t, r, http.MethodPost, "/api/messages/conversations", "alice", map[string]any{"other_user_id": "bob"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/messages", "bob", map[string]any{"conversation_id": convID})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, out = do(t, r, http.MethodPost, "/api/messages", "bob", map[string]any{"conversation_id": convID, "content": "hi"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "hi", out["message"].(map[string]any)["content"])

	w, out = do(t, r, http.MethodGet, "/api/messages/unread", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, out["unread"])

	w, out = do(t, r, http.MethodGet, "/api/messages/conversations/"+convID, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out["messages"], 1)

	w, _ = do(t, r, http.MethodGet, "/api/messages/conversations/"+convID, "mallory", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
