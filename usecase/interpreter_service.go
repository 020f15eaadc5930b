package usecase

import (
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
	"github.com/satriahrh/jurubahasa/internal/metrics"
)

// InterpreterService creates session pipelines that share one set of providers
type InterpreterService struct {
	catalog    *entities.Catalog
	stt        repositories.SpeechToText
	translator *TranslationService
	tts        repositories.TextToSpeech
	publisher  repositories.ResultPublisher
	metrics    *metrics.Metrics
	config     PipelineConfig
	logger     *zap.Logger
}

// NewInterpreterService creates a new interpreter service.
// publisher and m may be nil.
func NewInterpreterService(
	catalog *entities.Catalog,
	stt repositories.SpeechToText,
	translator *TranslationService,
	tts repositories.TextToSpeech,
	publisher repositories.ResultPublisher,
	m *metrics.Metrics,
	config PipelineConfig,
	logger *zap.Logger,
) *InterpreterService {
	return &InterpreterService{
		catalog:    catalog,
		stt:        stt,
		translator: translator,
		tts:        tts,
		publisher:  publisher,
		metrics:    m,
		config:     config,
		logger:     logger,
	}
}

// Catalog returns the supported languages
func (s *InterpreterService) Catalog() *entities.Catalog {
	return s.catalog
}

// NewSession validates the language pair and returns an idle session pipeline
func (s *InterpreterService) NewSession(source, target string) (*SessionPipeline, error) {
	src, tgt, err := s.catalog.ValidatePair(source, target)
	if err != nil {
		return nil, err
	}

	session := entities.NewSession(src, tgt)

	s.logger.Info("Session created",
		zap.String("sessionID", session.ID),
		zap.String("source", src.Code),
		zap.String("target", tgt.Code))

	return &SessionPipeline{
		session:    session,
		catalog:    s.catalog,
		stt:        s.stt,
		translator: s.translator,
		tts:        s.tts,
		publisher:  s.publisher,
		metrics:    s.metrics,
		config:     s.config,
		logger:     s.logger.With(zap.String("sessionID", session.ID)),
	}, nil
}
