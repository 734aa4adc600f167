package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-vision-assistant/internal/analysis"
	apperrors "go-vision-assistant/internal/errors"
	"go-vision-assistant/internal/imaging"
	"go-vision-assistant/internal/model"
	"go-vision-assistant/internal/observer"
	"go-vision-assistant/internal/prompt"
	"go-vision-assistant/internal/quality"
)

// AnalysisService turns one uploaded image into one speech-friendly analysis
type AnalysisService interface {
	// Analyze runs the pipeline for mode: normalize, prompt, a single model call, text extraction
	Analyze(ctx context.Context, mode analysis.Mode, raw []byte) (*analysis.Result, error)

	AnalyzeShelf(ctx context.Context, raw []byte) (*analysis.Result, error)
	AnalyzeNavigation(ctx context.Context, raw []byte) (*analysis.Result, error)
	ExtractText(ctx context.Context, raw []byte) (*analysis.Result, error)
}

// Option customizes an analysis service
type Option func(*analysisService)

// WithModeInvoker routes one mode to a different invoker, e.g. local OCR
func WithModeInvoker(mode analysis.Mode, invoker model.Invoker) Option {
	return func(s *analysisService) {
		s.modeInvokers[mode] = invoker
	}
}

// WithQualityAssessor attaches capture hints to successful results
func WithQualityAssessor(assessor *quality.Assessor) Option {
	return func(s *analysisService) {
		s.assessor = assessor
	}
}

// WithEventPublisher publishes analysis lifecycle events
func WithEventPublisher(publisher observer.Subject) Option {
	return func(s *analysisService) {
		s.publisher = publisher
	}
}

// analysisService implements AnalysisService.
// All fields are read-only after construction.
type analysisService struct {
	normalizer   *imaging.Normalizer
	catalog      *prompt.Catalog
	invoker      model.Invoker
	modeInvokers map[analysis.Mode]model.Invoker
	config       model.InvocationConfig
	assessor     *quality.Assessor
	publisher    observer.Subject
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	normalizer *imaging.Normalizer,
	catalog *prompt.Catalog,
	invoker model.Invoker,
	config model.InvocationConfig,
	opts ...Option,
) AnalysisService {
	s := &analysisService{
		normalizer:   normalizer,
		catalog:      catalog,
		invoker:      invoker,
		modeInvokers: make(map[analysis.Mode]model.Invoker),
		config:       config,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeShelf lists products, prices and their positions on a shelf photo
func (s *analysisService) AnalyzeShelf(ctx context.Context, raw []byte) (*analysis.Result, error) {
	return s.Analyze(ctx, analysis.ModeShelf, raw)
}

// AnalyzeNavigation gives step-by-step in-store directions
func (s *analysisService) AnalyzeNavigation(ctx context.Context, raw []byte) (*analysis.Result, error) {
	return s.Analyze(ctx, analysis.ModeNavigation, raw)
}

// ExtractText reads all visible text
func (s *analysisService) ExtractText(ctx context.Context, raw []byte) (*analysis.Result, error) {
	return s.Analyze(ctx, analysis.ModeOCR, raw)
}

// Analyze returns either a result with non-empty text or an *apperrors.AnalysisError
func (s *analysisService) Analyze(ctx context.Context, mode analysis.Mode, raw []byte) (*analysis.Result, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unsupported analysis mode: %s", mode)
	}

	start := time.Now()
	s.publish(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		Mode:      mode.String(),
		Metadata:  map[string]interface{}{"image_bytes": len(raw)},
	})

	result, err := s.run(ctx, mode, raw)
	if err != nil {
		stage, _ := apperrors.StageOf(err)
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			Mode:           mode.String(),
			ProcessingTime: time.Since(start),
			Stage:          string(stage),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Mode:           mode.String(),
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"result_chars": len(result.Text),
			"hints":        len(result.Hints),
		},
	})
	return result, nil
}

func (s *analysisService) run(ctx context.Context, mode analysis.Mode, raw []byte) (*analysis.Result, error) {
	msgs := messagesFor(mode)

	img, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, imagePreparationError(err).WithMode(mode.String(), ImagePreparationMessage)
	}

	instruction := s.catalog.PromptFor(mode)

	// an abandoned request never reaches the model
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewModelInvocationError(err).WithMode(mode.String(), msgs.failure)
	}

	resp, err := s.invokerFor(mode).Invoke(ctx, img, instruction, s.config)
	if err != nil {
		return nil, apperrors.NewModelInvocationError(err).WithMode(mode.String(), msgs.failure)
	}

	if resp.Empty() {
		return nil, apperrors.NewEmptyResponseError().WithMode(mode.String(), msgs.empty)
	}

	result := &analysis.Result{
		Mode: mode,
		Text: resp.Text(),
	}
	if s.assessor != nil {
		result.Hints = s.assessor.Assess(img.Image).Hints()
	}
	return result, nil
}

func (s *analysisService) invokerFor(mode analysis.Mode) model.Invoker {
	if inv, ok := s.modeInvokers[mode]; ok {
		return inv
	}
	return s.invoker
}

func (s *analysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.publisher == nil {
		return
	}
	s.publisher.NotifyObservers(ctx, event)
}

// imagePreparationError keeps the normalizer's reason when it has one
func imagePreparationError(err error) *apperrors.AnalysisError {
	var analysisErr *apperrors.AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr
	}
	return apperrors.NewImagePreparationError(apperrors.ReasonDecodeFailure, err)
}
