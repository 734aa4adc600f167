package container

import (
	"context"
	"fmt"
	"net/http"

	"go-vision-assistant/internal/analysis"
	"go-vision-assistant/internal/config"
	"go-vision-assistant/internal/imaging"
	"go-vision-assistant/internal/logger"
	"go-vision-assistant/internal/model"
	"go-vision-assistant/internal/observer"
	"go-vision-assistant/internal/prompt"
	"go-vision-assistant/internal/quality"
	"go-vision-assistant/internal/repository"
	"go-vision-assistant/internal/service"
	"go-vision-assistant/internal/storage"
	"go-vision-assistant/internal/transport"
	"go-vision-assistant/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	invoker         model.Invoker
	imageRepository repository.ImageRepository
	analysisService service.AnalysisService
	publisher       *observer.EventPublisher
	metrics         *observer.MetricsObserver
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	client, err := model.NewGeminiClient(ctx, model.ClientOptions{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
	})
	if err != nil {
		return nil, err
	}

	staging, err := model.ParseStagingMode(cfg.GeminiUploadMode)
	if err != nil {
		return nil, err
	}
	geminiOpts := model.DefaultGeminiOptions()
	geminiOpts.Staging = staging
	geminiOpts.TempDir = cfg.TempDir

	invoker, err := model.NewGeminiInvoker(client, geminiOpts)
	if err != nil {
		return nil, err
	}

	return build(cfg, invoker)
}

// build wires everything below the model invoker
func build(cfg *config.Config, invoker model.Invoker) (*Container, error) {
	format, err := imaging.ParseFormat(cfg.ImageFormat)
	if err != nil {
		return nil, err
	}
	imageOpts := imaging.DefaultOptions().
		WithBounds(cfg.ImageMaxWidth, cfg.ImageMaxHeight).
		WithFormat(format)
	if cfg.ImageMaxSourcePixels > 0 {
		imageOpts = imageOpts.WithMaxSourcePixels(cfg.ImageMaxSourcePixels)
	}
	normalizer, err := imaging.NewNormalizer(imageOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to configure image normalizer: %w", err)
	}

	catalog, err := prompt.NewCatalog()
	if err != nil {
		return nil, err
	}

	invocationConfig := model.DefaultInvocationConfig(cfg.GeminiModel)
	if err := invocationConfig.Validate(); err != nil {
		return nil, err
	}

	// Observers are registered once at startup
	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	opts := []service.Option{service.WithEventPublisher(publisher)}
	if cfg.QualityHints {
		opts = append(opts, service.WithQualityAssessor(quality.NewAssessor(quality.DefaultThresholds())))
	}
	if cfg.OCRBackend == "tesseract" {
		tesseract, err := model.NewTesseractInvoker(cfg.TesseractLanguages)
		if err != nil {
			return nil, fmt.Errorf("failed to configure tesseract OCR backend: %w", err)
		}
		opts = append(opts, service.WithModeInvoker(analysis.ModeOCR, tesseract))
	}

	analysisService := service.NewAnalysisService(normalizer, catalog, invoker, invocationConfig, opts...)

	imageRepository, err := newImageRepository(cfg, publisher)
	if err != nil {
		return nil, err
	}

	handler := transport.NewHandler(analysisService, imageRepository, metrics, cfg)

	logger.WithFields(logrus.Fields{
		"model":          invocationConfig.Model,
		"upload_mode":    cfg.GeminiUploadMode,
		"ocr_backend":    cfg.OCRBackend,
		"image_bounds":   fmt.Sprintf("%dx%d", cfg.ImageMaxWidth, cfg.ImageMaxHeight),
		"quality_hints":  cfg.QualityHints,
		"azure_enabled":  cfg.AzureEnabled(),
		"max_concurrent": cfg.MaxConcurrentAnalyses,
	}).Info("Dependencies initialized")

	return &Container{
		config:          cfg,
		invoker:         invoker,
		imageRepository: imageRepository,
		analysisService: analysisService,
		publisher:       publisher,
		metrics:         metrics,
		handler:         handler,
	}, nil
}

func newImageRepository(cfg *config.Config, publisher observer.Subject) (*repository.RemoteImageRepository, error) {
	validator := validation.NewURLValidator()
	if len(cfg.ImageURLAllowedHosts) > 0 {
		validator = validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.ImageURLAllowedHosts)
	}

	fetcherOpts := storage.DefaultHTTPFetcherOptions()
	fetcherOpts.Timeout = cfg.ImageFetchTimeout
	fetcherOpts.MaxBytes = cfg.MaxRequestBodySize
	fetcherOpts.AllowPrivateNetworks = cfg.ImageURLAllowPrivate
	fetcher := storage.NewHTTPImageFetcher(fetcherOpts)

	var blobs []repository.BlobSource
	if cfg.AzureEnabled() {
		azure, err := storage.NewAzureImageFetcher(cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.MaxRequestBodySize)
		if err != nil {
			return nil, fmt.Errorf("failed to configure Azure blob storage: %w", err)
		}
		blobs = append(blobs, azure)
	}

	return repository.NewRemoteImageRepository(validator, fetcher, publisher, blobs...), nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// AnalysisService returns the orchestrator behind the HTTP routes
func (c *Container) AnalysisService() service.AnalysisService {
	return c.analysisService
}

// Metrics returns the metrics observer
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}
