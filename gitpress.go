// Package gitpress is a content service for a statically exported blog whose
// database is a git repository. Posts, settings, and uploaded images live as
// files on one branch of a remote repository; every edit made through the
// admin API becomes a commit, so the full content history is versioned and
// auditable for free.
//
// Authentication is delegated to an external service: the admin API trusts
// the bearer credential delivered in the X-GitHub-Token header and forwards
// it to the remote store, which accepts or rejects it.
package gitpress

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// App is the central gitpress application. It wires together the remote-store
// clients, cache, search index, handlers, and middleware.
type App struct {
	Config Config
	Echo   *echo.Echo
	Cache  *PostCache
	Index  *PostIndex

	httpClient   *http.Client
	authLimiter  *AuthLimiter
	stamps       *stamper
	contentStore *PostStore
	customRoutes []func(*App)
}

// New creates a new gitpress App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		stamps: newStamper(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the cache, search index, middleware, and routes, and
// starts the server.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// init validates config and wires everything except the listener. Split out
// of Start so tests can exercise the full route table without binding a port.
func (a *App) init() error {
	if a.Config.Repo.Owner == "" || a.Config.Repo.Repo == "" {
		return fmt.Errorf("gitpress: Repo.Owner and Repo.Repo are required")
	}

	if a.Config.ContentToken != "" {
		a.contentStore = NewPostStore(a.client(a.Config.ContentToken))
		a.Cache = NewPostCache(a.contentStore, a.Config.PostCacheTTL)

		index, err := NewPostIndex()
		if err != nil {
			return fmt.Errorf("gitpress: init search index: %w", err)
		}
		a.Index = index
		a.Cache.OnReload(func(posts []BlogPost) {
			if err := a.Index.Rebuild(posts); err != nil {
				a.Echo.Logger.Errorf("rebuild search index: %v", err)
			}
		})
	}

	a.authLimiter = NewAuthLimiter(10, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/healthz", handleHealthz)

	admin := e.Group("/api/admin", a.requireToken)
	admin.GET("/posts", a.handleListPosts)
	admin.POST("/posts", a.handleCreatePost)
	admin.GET("/posts/:slug", a.handleGetPost)
	admin.PUT("/posts/:slug", a.handleUpdatePost)
	admin.DELETE("/posts/:slug", a.handleDeletePost)
	admin.GET("/settings", a.handleGetSettings)
	admin.PUT("/settings", a.handleSaveSettings)
	admin.POST("/upload", a.handleUpload)
	admin.GET("/test-token", a.handleTestToken)
	admin.POST("/preview", a.handlePreview)
	admin.GET("/search", a.handleSearch)

	// Public read-only endpoints, backed by the server content token.
	if a.Cache != nil {
		e.GET("/api/blog/posts", a.handlePublicPosts)
		e.GET("/api/blog/posts/:slug", a.handlePublicPost)
	}
}

// client builds a contents-API client for one credential around the shared
// http.Client.
func (a *App) client(token string) *Client {
	return NewClient(a.Config.Repo, token, WithHTTPClient(a.httpClient))
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Index != nil {
		return a.Index.Close()
	}
	return nil
}
