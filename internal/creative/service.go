package creative

import (
	"context"
	"fmt"
	"os"

	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/formatter"
	"github.com/BerylCAtieno/ad-creative-agent/internal/generator"
	"github.com/BerylCAtieno/ad-creative-agent/internal/logger"
	"github.com/BerylCAtieno/ad-creative-agent/internal/models"
	"github.com/BerylCAtieno/ad-creative-agent/internal/normalizer"
)

// Request is one user action: an input document, optional free-text
// instructions and the choice between the real backend and the stub.
type Request struct {
	Input        []byte
	Instructions string
	UseReal      bool
}

type Response struct {
	Payload *models.Payload
	Result  *models.Result
}

// Service runs normalize, generate and format for a single request. It keeps
// no state between requests.
type Service struct {
	cfg          *config.Config
	normalizer   *normalizer.Normalizer
	formatter    *formatter.Formatter
	newGenerator generator.Factory
}

type Option func(*Service)

// WithGeneratorFactory replaces generator.New.
func WithGeneratorFactory(f generator.Factory) Option {
	return func(s *Service) {
		s.newGenerator = f
	}
}

func NewService(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:          cfg,
		normalizer:   normalizer.New(cfg.Defaults),
		formatter:    formatter.New(cfg.Defaults.ImageURL),
		newGenerator: generator.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns an error from the package taxonomy (see UserMessage) or a
// Response whose Result may still be the error shape when nothing was generated.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	payload, err := s.normalizer.NormalizeJSON(req.Input, req.Instructions)
	if err != nil {
		logger.Log.Warnf("normalization failed: %v", err)
		return nil, err
	}

	gen, err := s.newGenerator(ctx, s.cfg.LLM, req.UseReal)
	if err != nil {
		logger.Log.Errorf("generation client init failed: %v", err)
		return nil, err
	}
	defer func() {
		if cerr := gen.Close(); cerr != nil {
			logger.Log.Warnf("closing generation client: %v", cerr)
		}
	}()

	logger.Log.Infof("generating %d variant(s) for channel %q (real backend: %v)", payload.NVariants, payload.Channel, req.UseReal)
	raw, err := gen.Generate(ctx, payload)
	if err != nil {
		logger.Log.Errorf("generation failed: %v", err)
		return nil, err
	}

	result := s.formatter.Format(raw, payload.Channel, payload.Product)
	if !result.Succeeded() {
		logger.Log.Warn("generation returned no variants")
	}
	return &Response{Payload: payload, Result: result}, nil
}

// DefaultInputPath is the file used when the caller supplies no input.
func (s *Service) DefaultInputPath() string {
	return s.cfg.Input.DefaultPath
}

// LoadDefaultInput reads the built-in sample document.
func (s *Service) LoadDefaultInput() ([]byte, error) {
	data, err := os.ReadFile(s.cfg.Input.DefaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read default input %s: %w", s.cfg.Input.DefaultPath, err)
	}
	return data, nil
}
