package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-vision-assistant/internal/analysis"
	"go-vision-assistant/internal/config"
	apperrors "go-vision-assistant/internal/errors"
	"go-vision-assistant/internal/logger"
	"go-vision-assistant/internal/observer"
	"go-vision-assistant/internal/repository"
	"go-vision-assistant/internal/service"
	"go-vision-assistant/internal/textmatch"
	"go-vision-assistant/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const serviceName = "Vision Assistant API"

// Messages returned in the "detail" field
const (
	MessageNotAnImage   = "Dosya bir görsel olmalıdır"
	MessageMissingImage = "Lütfen bir fotoğraf yükleyin veya görsel adresi girin"
	MessageTooLarge     = "Dosya çok büyük"
	MessageBusy         = "Sunucu şu anda meşgul, lütfen tekrar deneyin"
	MessageUnexpected   = "Beklenmeyen bir hata oluştu"
)

// Handler serves the analysis routes
type Handler struct {
	service    service.AnalysisService
	repository repository.ImageRepository
	metrics    *observer.MetricsObserver
	cfg        *config.Config
}

// NewHandler builds the gin engine with all routes and middleware.
// repository and metrics may be nil, which disables image_url input and /metrics.
func NewHandler(svc service.AnalysisService, repo repository.ImageRepository, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	h := &Handler{
		service:    svc,
		repository: repo,
		metrics:    metrics,
		cfg:        cfg,
	}

	r := gin.New()

	// Add middleware
	r.Use(
		panicRecovery(),
		requestID(),
		requestLogger(),
		corsHeaders(cfg.CORSAllowedOrigins),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/", h.index)
	r.GET("/health", healthCheck)
	if h.metrics != nil {
		r.GET("/metrics", h.metricsSnapshot)
	}
	if dirExists(cfg.StaticDir) {
		r.Static("/static", cfg.StaticDir)
	}

	var limiter *semaphore.Weighted
	if cfg.MaxConcurrentAnalyses > 0 {
		limiter = semaphore.NewWeighted(int64(cfg.MaxConcurrentAnalyses))
	}

	api := r.Group("/api", concurrencyLimiter(limiter))
	api.POST("/analyze-shelf", h.analyze(analysis.ModeShelf))
	api.POST("/analyze-navigation", h.analyze(analysis.ModeNavigation))
	api.POST("/extract-text", h.analyze(analysis.ModeOCR))

	return r
}

func (h *Handler) analyze(mode analysis.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.AnalysisTimeout)
		defer cancel()

		raw, source, err := h.readImage(ctx, c)
		if err != nil {
			respondError(c, mode, err)
			return
		}

		result, err := h.service.Analyze(ctx, mode, raw)
		if err != nil {
			respondError(c, mode, err)
			return
		}

		resp := newAnalysisResponse(result)
		if mode == analysis.ModeOCR {
			if expected := c.PostForm("expected_text"); strings.TrimSpace(expected) != "" {
				m := textmatch.Compare(expected, result.Text)
				resp.Match = &models.TextMatch{
					WordErrorRate:      m.WordErrorRate,
					CharacterErrorRate: m.CharacterErrorRate,
				}
			}
		}

		logger.WithFields(logrus.Fields{
			"request_id":         observer.RequestIDFromContext(ctx),
			"mode":               mode.String(),
			"source":             source,
			"image_bytes":        len(raw),
			"result_chars":       len(result.Text),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Analysis request completed")

		c.JSON(http.StatusOK, resp)
	}
}

// readImage returns the uploaded file, or the image behind the image_url form field
func (h *Handler) readImage(ctx context.Context, c *gin.Context) ([]byte, string, error) {
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		// spill files of large uploads live until the form is released
		defer func() {
			_ = form.RemoveAll()
		}()
		if files := form.File["file"]; len(files) > 0 {
			raw, err := readUpload(files[0])
			return raw, "upload", err
		}
	case errors.Is(err, http.ErrNotMultipart):
		// urlencoded bodies may still carry image_url
	default:
		return nil, "", apperrors.NewValidationError(MessageMissingImage, err)
	}

	imageURL := strings.TrimSpace(c.PostForm("image_url"))
	if imageURL == "" || h.repository == nil {
		return nil, "", apperrors.NewValidationError(MessageMissingImage, nil)
	}

	raw, err := h.repository.FetchImage(ctx, imageURL)
	return raw, "url", err
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if !isImageContentType(fh.Header.Get("Content-Type")) {
		return nil, apperrors.NewValidationError(MessageNotAnImage,
			fmt.Errorf("upload %q has content type %q", fh.Filename, fh.Header.Get("Content-Type")))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewImagePreparationError(apperrors.ReasonNotFound, err).
			WithMode("", service.ImagePreparationMessage)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.NewImagePreparationError(apperrors.ReasonNotFound, err).
			WithMode("", service.ImagePreparationMessage)
	}
	return raw, nil
}

func isImageContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

func newAnalysisResponse(result *analysis.Result) models.AnalysisResponse {
	resp := models.AnalysisResponse{
		Success: true,
		Type:    result.Mode.String(),
		Hints:   result.Hints,
	}
	if result.Mode.ResultLabel() == "text" {
		resp.Text = result.Text
	} else {
		resp.Analysis = result.Text
	}
	return resp
}

func (h *Handler) index(c *gin.Context) {
	index := filepath.Join(h.cfg.StaticDir, "index.html")
	if fileExists(index) {
		c.File(index)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{
		Message: serviceName,
		Status:  "running",
	})
}

func (h *Handler) metricsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: serviceName,
	})
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
