package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/gitpress/gitpress/auth"
	"github.com/gitpress/gitpress/model"
	"github.com/gitpress/gitpress/posts"
	"github.com/gitpress/gitpress/render"
	"github.com/gitpress/gitpress/server/middlewares"
)

// PostService is the slice of the post coordinator the HTTP layer consumes.
type PostService interface {
	GetAllPosts(ctx context.Context) ([]model.Post, error)
	GetPost(ctx context.Context, postId string) (model.Post, error)
	CreatePost(ctx context.Context, draft model.PostDraft, author *model.Author) (model.Post, error)
	UpdatePost(ctx context.Context, postId string, update model.PostUpdate, author *model.Author) (model.Post, error)
	DeletePost(ctx context.Context, postId string, author *model.Author) error
}

// Server holds the handler dependencies.
type Server struct {
	posts    PostService
	users    *auth.UserStore
	sessions *auth.SessionManager
}

func NewServer(postService PostService, users *auth.UserStore, sessions *auth.SessionManager) *Server {
	return &Server{
		posts:    postService,
		users:    users,
		sessions: sessions,
	}
}

// RegisterRoutes wires every route onto the router. Write routes sit behind
// the auth middleware so unauthorized attempts never reach the coordinator.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/posts", s.ListPosts)
	router.GET("/api/posts/:id", s.GetPost)
	router.GET("/posts/:id/html", s.PostHTML)

	router.POST("/api/signup", s.Signup)
	router.POST("/api/signin", s.Signin)
	router.POST("/api/signout", s.Signout)

	authed := router.Group("/", middlewares.Auth())
	authed.POST("/api/posts", s.CreatePost)
	authed.PUT("/api/posts/:id", s.UpdatePost)
	authed.DELETE("/api/posts/:id", s.DeletePost)
}

// author resolves the authenticated identity the middleware stored in the
// "sub" header into a write attribution.
func (s *Server) author(c *gin.Context) (*model.Author, bool) {
	username := c.Request.Header.Get("sub")
	if username == "" {
		return nil, false
	}
	identity := &model.Author{Name: username}
	if user, ok := s.users.Get(username); ok {
		identity.Email = user.Email
	}
	return identity, true
}

func writePostError(c *gin.Context, err error) {
	if errors.Cause(err) == posts.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

func (s *Server) ListPosts(c *gin.Context) {
	list, err := s.posts.GetAllPosts(c.Request.Context())
	if err != nil {
		writePostError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) GetPost(c *gin.Context) {
	post, err := s.posts.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		writePostError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// PostHTML serves the post body rendered from markdown to HTML.
func (s *Server) PostHTML(c *gin.Context) {
	post, err := s.posts.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		writePostError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(render.Markdown(post.Content)))
}

func (s *Server) CreatePost(c *gin.Context) {
	identity, ok := s.author(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}

	var draft model.PostDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// The post is always attributed to the signed-in user, whatever the
	// body claims.
	draft.Author = identity.Name

	post, err := s.posts.CreatePost(c.Request.Context(), draft, identity)
	if err != nil {
		writePostError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) UpdatePost(c *gin.Context) {
	identity, ok := s.author(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}

	var update model.PostUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := s.posts.UpdatePost(c.Request.Context(), c.Param("id"), update, identity)
	if err != nil {
		writePostError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) DeletePost(c *gin.Context) {
	identity, ok := s.author(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}

	if err := s.posts.DeletePost(c.Request.Context(), c.Param("id"), identity); err != nil {
		writePostError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type credentials struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) Signup(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.Register(creds.Username, creds.Email, creds.Password)
	if err != nil {
		if err == auth.ErrUserExists {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"username": user.Username,
		"token":    s.sessions.Issue(user.Username),
	})
}

func (s *Server) Signin(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.Authenticate(creds.Username, creds.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
		"token":    s.sessions.Issue(user.Username),
	})
}

func (s *Server) Signout(c *gin.Context) {
	if token := middlewares.BearerToken(c); token != "" {
		s.sessions.Revoke(token)
	}
	c.Status(http.StatusNoContent)
}
