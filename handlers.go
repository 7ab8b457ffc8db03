package gitpress

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	// webp uploads are common enough from design tools to be worth decoding.
	_ "golang.org/x/image/webp"

	"github.com/tmkdo/gitpress/markdown"
)

// apiError maps the store error taxonomy onto HTTP statuses. Conflicts are
// 409 and retryable: the right caller response is reload-and-resubmit.
func (a *App) apiError(c echo.Context, err error) error {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrAuth):
		a.authLimiter.Record(c.RealIP())
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "GitHub token rejected"})
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "content changed upstream; reload and resubmit",
			"retryable": true,
		})
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Reason})
	default:
		c.Logger().Errorf("store error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
}

// posts builds a PostStore bound to the caller's credential.
func (a *App) posts(c echo.Context) *PostStore {
	return NewPostStore(a.client(requestToken(c)))
}

func (a *App) handleListPosts(c echo.Context) error {
	posts, err := a.posts(c).List(c.Request().Context())
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.posts(c).Get(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"post": post})
}

// normalizePost fills derivable fields and validates what the stored format
// requires. Returns a ValidationError on bad input.
func normalizePost(post *BlogPost) error {
	post.Slug = strings.TrimSpace(post.Slug)
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	if post.Slug == "" {
		return NewValidationError("slug is required; add a title or slug")
	}
	post.Date = strings.TrimSpace(post.Date)
	if post.Date == "" {
		post.Date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", post.Date); err != nil {
		return NewValidationError("invalid date format; use YYYY-MM-DD")
	}
	post.Tags = FilterEmpty(post.Tags)
	if post.Tags == nil {
		post.Tags = []string{}
	}
	return nil
}

func (a *App) handleCreatePost(c echo.Context) error {
	var post BlogPost
	if err := c.Bind(&post); err != nil {
		return a.apiError(c, NewValidationError("malformed post payload"))
	}
	if err := normalizePost(&post); err != nil {
		return a.apiError(c, err)
	}
	if err := a.posts(c).Save(c.Request().Context(), post, ""); err != nil {
		return a.apiError(c, err)
	}
	a.invalidate()
	return c.JSON(http.StatusCreated, echo.Map{"slug": post.Slug})
}

func (a *App) handleUpdatePost(c echo.Context) error {
	var post BlogPost
	if err := c.Bind(&post); err != nil {
		return a.apiError(c, NewValidationError("malformed post payload"))
	}
	if err := normalizePost(&post); err != nil {
		return a.apiError(c, err)
	}
	originalSlug := c.Param("slug")
	if err := a.posts(c).Save(c.Request().Context(), post, originalSlug); err != nil {
		return a.apiError(c, err)
	}
	a.invalidate()
	return c.JSON(http.StatusOK, echo.Map{"slug": post.Slug})
}

func (a *App) handleDeletePost(c echo.Context) error {
	if err := a.posts(c).Delete(c.Request().Context(), c.Param("slug")); err != nil {
		return a.apiError(c, err)
	}
	a.invalidate()
	return c.JSON(http.StatusOK, echo.Map{"deleted": c.Param("slug")})
}

func (a *App) handleGetSettings(c echo.Context) error {
	store := NewSettingsStore(a.client(requestToken(c)), a.Config.DefaultSettings)
	settings, err := store.Get(c.Request().Context())
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"settings": settings})
}

func (a *App) handleSaveSettings(c echo.Context) error {
	var settings SiteSettings
	if err := c.Bind(&settings); err != nil {
		return a.apiError(c, NewValidationError("malformed settings payload"))
	}
	store := NewSettingsStore(a.client(requestToken(c)), a.Config.DefaultSettings)
	if err := store.Save(c.Request().Context(), settings); err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"saved": true})
}

func (a *App) handleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return a.apiError(c, NewValidationError("no file provided"))
	}
	if file.Size > a.Config.MaxUploadSize {
		return a.apiError(c, NewValidationError("file too large"))
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, a.Config.MaxUploadSize+1))
	if err != nil {
		return err
	}
	if int64(len(data)) > a.Config.MaxUploadSize {
		return a.apiError(c, NewValidationError("file too large"))
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return a.apiError(c, NewValidationError("file must be an image"))
	}

	uploader := NewUploader(a.client(requestToken(c)), a.stamps)
	url, err := uploader.Upload(c.Request().Context(), data, file.Filename)
	if err != nil {
		return a.apiError(c, err)
	}

	// Best-effort dimensions for the editor; webp comes from the x/image
	// decoder registered above.
	var width, height int
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url, "width": width, "height": height})
}

func (a *App) handleTestToken(c echo.Context) error {
	client := a.client(requestToken(c))
	user, repoAccess, err := client.CheckToken(c.Request().Context())
	if err != nil {
		if errors.Is(err, ErrAuth) {
			a.authLimiter.Record(c.RealIP())
			return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false, "error": "token authentication failed"})
		}
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid":         true,
		"user":          user,
		"hasRepoAccess": repoAccess,
	})
}

func (a *App) handlePreview(c echo.Context) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return a.apiError(c, NewValidationError("malformed preview payload"))
	}
	html, err := markdown.Render(req.Content)
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"html": html})
}

func (a *App) handleSearch(c echo.Context) error {
	if a.Cache == nil || a.Index == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "search requires a configured content token"})
	}
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return a.apiError(c, NewValidationError("query parameter q is required"))
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return a.apiError(c, NewValidationError("limit must be between 1 and 100"))
		}
		limit = n
	}

	// Loading the cache also rebuilds the index when stale.
	if _, err := a.Cache.ListPosts(c.Request().Context()); err != nil {
		return a.apiError(c, err)
	}
	hits, err := a.Index.Search(query, limit)
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"hits": hits})
}

func (a *App) handlePublicPosts(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context())
	if err != nil {
		return a.apiError(c, err)
	}
	summaries := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, PostSummary{
			Slug:     p.Slug,
			Title:    p.Title,
			Excerpt:  p.Excerpt,
			Image:    p.Image,
			Date:     p.Date,
			Category: p.Category,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": summaries})
}

func (a *App) handlePublicPost(c echo.Context) error {
	post, err := a.Cache.GetPost(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"post": post})
}

func handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// invalidate drops the public post cache after an admin write.
func (a *App) invalidate() {
	if a.Cache != nil {
		a.Cache.Invalidate()
	}
}
