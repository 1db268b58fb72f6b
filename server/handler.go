package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spektr-org/equipdash/archive"
	"github.com/spektr-org/equipdash/engine"
	"github.com/spektr-org/equipdash/service"
	"github.com/spektr-org/equipdash/store"
)

// DashboardUseCase is what the handlers need from the service layer.
type DashboardUseCase interface {
	Upload(ctx context.Context, filename string, data []byte) (*service.UploadResult, error)
	Records(ctx context.Context, uploadID string) (*store.Upload, []engine.EquipmentRecord, error)
	Summary(ctx context.Context, uploadID string) (engine.SummaryStats, error)
	View(ctx context.Context, uploadID string, state engine.ViewState) (engine.ViewResult, *engine.TableData, error)
	Charts(ctx context.Context, uploadID string) (*engine.Charts, error)
	History(ctx context.Context, limit int) ([]store.Upload, error)
	Detail(ctx context.Context, uploadID string) (*service.Detail, error)
	RawURL(ctx context.Context, uploadID string) (string, error)
	Export(ctx context.Context, w io.Writer, uploadID string, state engine.ViewState) error
}

// MaxUploadBytes caps the multipart file size.
const MaxUploadBytes = 10 << 20

// maxUploadBody caps the whole request body: the file plus form overhead.
const maxUploadBody = MaxUploadBytes + 1<<20

// MaxPerPage caps the per_page query parameter.
const MaxPerPage = 100

type Handler struct {
	UseCase DashboardUseCase

	// DefaultView is the table state query parameters are applied to.
	DefaultView engine.ViewState
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithDefaultView sets the starting table state for /view and /export.
func WithDefaultView(state engine.ViewState) HandlerOption {
	return func(h *Handler) { h.DefaultView = state }
}

func NewHandler(u DashboardUseCase, opts ...HandlerOption) *Handler {
	h := &Handler{UseCase: u, DefaultView: engine.DefaultViewState()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)
	file, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", MaxUploadBytes)})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if file.Size > MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", MaxUploadBytes)})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	res, err := h.UseCase.Upload(c.Request.Context(), file.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":         "Upload successful",
		"upload":          res.Upload,
		"equipment_count": res.Upload.RecordCount,
		"summary":         res.Summary,
		"report":          res.Report,
	})
}

func (h *Handler) Data(c *gin.Context) {
	upload, records, err := h.UseCase.Records(c.Request.Context(), c.Query("upload_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload": upload, "equipment": records})
}

func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.UseCase.Summary(c.Request.Context(), c.Query("upload_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) View(c *gin.Context) {
	state, err := parseViewState(c, h.DefaultView)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, table, err := h.UseCase.View(c.Request.Context(), c.Query("upload_id"), state)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": view, "table": table})
}

func (h *Handler) Charts(c *gin.Context) {
	charts, err := h.UseCase.Charts(c.Request.Context(), c.Query("upload_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, charts)
}

func (h *Handler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	uploads, err := h.UseCase.History(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, uploads)
}

func (h *Handler) Detail(c *gin.Context) {
	detail, err := h.UseCase.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) Raw(c *gin.Context) {
	url, err := h.UseCase.RawURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, url)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) Export(c *gin.Context) {
	state, err := parseViewState(c, h.DefaultView)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Resolve before writing headers so a bad id still gets a JSON error.
	upload, _, err := h.UseCase.Records(c.Request.Context(), c.Query("upload_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	id, name := "", "equipment.csv"
	if upload != nil {
		id = upload.ID
		name = "equipment-" + upload.UploadedAt.Format("20060102-150405") + ".csv"
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Status(http.StatusOK)
	if err := h.UseCase.Export(c.Request.Context(), c.Writer, id, state); err != nil {
		_ = c.Error(err)
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// ============================================================================
// HELPERS
// ============================================================================

// parseViewState applies search, sort, direction, page and per_page to base.
// An unknown sort field is passed through; the engine sorts it by name.
func parseViewState(c *gin.Context, base engine.ViewState) (engine.ViewState, error) {
	state := base
	state.SearchTerm = c.Query("search")

	if raw := c.Query("sort"); raw != "" {
		if f, ok := engine.ParseField(raw); ok {
			state.SortField = f
		} else {
			state.SortField = engine.Field(raw)
		}
	}
	if raw := c.Query("direction"); raw != "" {
		d, ok := engine.ParseDirection(raw)
		if !ok {
			return state, fmt.Errorf("direction must be asc or desc, got %q", raw)
		}
		state.SortDirection = d
	}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return state, fmt.Errorf("page must be an integer, got %q", raw)
		}
		state.CurrentPage = n
	}
	if raw := c.Query("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return state, fmt.Errorf("per_page must be a positive integer, got %q", raw)
		}
		state.ItemsPerPage = min(n, MaxPerPage)
	}
	return state, nil
}

// writeError maps service errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotCSV),
		errors.Is(err, service.ErrParse),
		errors.Is(err, service.ErrNoRecords):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, archive.ErrDisabled):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
