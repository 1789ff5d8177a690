package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/gitpress/gitpress/auth"
	"github.com/gitpress/gitpress/cache"
	"github.com/gitpress/gitpress/model"
	"github.com/gitpress/gitpress/posts"
	"github.com/gitpress/gitpress/server/middlewares"
	"github.com/gitpress/gitpress/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.SessionManager) {
	gin.SetMode(gin.TestMode)

	users, err := auth.NewUserStore(filepath.Join(t.TempDir(), "users.json"))
	assert.Nil(t, err)
	sessions := auth.NewSessionManager()
	middlewares.Setup(sessions)

	coordinator := posts.NewCoordinator(
		storage.NewFakeStore(),
		cache.NewPostCache(cache.NewMemoryBackend(), 0),
	)

	router := gin.New()
	NewServer(coordinator, users, sessions).RegisterRoutes(router)
	return router, sessions
}

func doJSON(router *gin.Engine, method string, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, router *gin.Engine, username string) string {
	w := doJSON(router, "POST", "/api/signup", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter2",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestWriteRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, "POST", "/api/posts", gin.H{"title": "A"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, "POST", "/api/posts", gin.H{"title": "A"}, "bogus-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)
	token := signup(t, router, "jamie")

	// create
	w := doJSON(router, "POST", "/api/posts", gin.H{
		"title":     "A",
		"content":   "# B",
		"author":    "spoofed",
		"published": true,
	}, token)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created model.Post
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Id)
	// attribution comes from the session, not the request body
	assert.Equal(t, "jamie", created.Author)

	// list
	w = doJSON(router, "GET", "/api/posts", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	var list []model.Post
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, len(list))
	assert.Equal(t, created.Id, list[0].Id)

	// get
	w = doJSON(router, "GET", "/api/posts/"+created.Id, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// rendered html
	w = doJSON(router, "GET", "/posts/"+created.Id+"/html", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>B</h1>")

	// update
	w = doJSON(router, "PUT", "/api/posts/"+created.Id, gin.H{"title": "A2"}, token)
	assert.Equal(t, http.StatusOK, w.Code)
	var updated model.Post
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "A2", updated.Title)
	assert.Equal(t, created.Id, updated.Id)

	// delete
	w = doJSON(router, "DELETE", "/api/posts/"+created.Id, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, "GET", "/api/posts/"+created.Id, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateMissingPost(t *testing.T) {
	router, _ := newTestRouter(t)
	token := signup(t, router, "jamie")

	w := doJSON(router, "PUT", "/api/posts/12345", gin.H{"title": "A"}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, "DELETE", "/api/posts/12345", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSigninAndSignout(t *testing.T) {
	router, sessions := newTestRouter(t)
	signup(t, router, "jamie")

	w := doJSON(router, "POST", "/api/signin", gin.H{
		"username": "jamie",
		"password": "hunter2",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &resp))

	username, ok := sessions.Resolve(resp.Token)
	assert.True(t, ok)
	assert.Equal(t, "jamie", username)

	w = doJSON(router, "POST", "/api/signout", nil, resp.Token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok = sessions.Resolve(resp.Token)
	assert.False(t, ok)
}

func TestSignoutWithQueryToken(t *testing.T) {
	router, sessions := newTestRouter(t)
	token := signup(t, router, "jamie")

	// Sessions established through the query-param fallback must be able
	// to sign out the same way.
	w := doJSON(router, "POST", "/api/signout?token="+token, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, ok := sessions.Resolve(token)
	assert.False(t, ok)
}

func TestSigninWrongPassword(t *testing.T) {
	router, _ := newTestRouter(t)
	signup(t, router, "jamie")

	w := doJSON(router, "POST", "/api/signin", gin.H{
		"username": "jamie",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignupDuplicate(t *testing.T) {
	router, _ := newTestRouter(t)
	signup(t, router, "jamie")

	w := doJSON(router, "POST", "/api/signup", gin.H{
		"username": "jamie",
		"email":    "jamie@example.com",
		"password": "hunter2",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}
