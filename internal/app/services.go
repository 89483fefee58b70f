package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tommyzki/tommyzki-translate/internal/config"
	"github.com/tommyzki/tommyzki-translate/internal/langdetect"
	"github.com/tommyzki/tommyzki-translate/internal/language"
	"github.com/tommyzki/tommyzki-translate/internal/llm"
	"github.com/tommyzki/tommyzki-translate/internal/logging"
	"github.com/tommyzki/tommyzki-translate/internal/preview"
	"github.com/tommyzki/tommyzki-translate/internal/translation"
)

type services struct {
	client   *llm.Client
	provider *translation.ModelProvider
	detector translation.Detector
	sessions *preview.Manager
}

func newLLMClient(cfg *config.Config) *llm.Client {
	return llm.NewClient(llm.Options{
		Endpoint:    cfg.LLMEndpoint,
		Model:       cfg.LLMModel,
		APIKey:      cfg.LLMAPIKey,
		Timeout:     cfg.LLMTimeout,
		Temperature: cfg.LLMTemperature,
	})
}

// newDetectorRegistry registers the model detector and both offline ones.
func newDetectorRegistry(provider *translation.ModelProvider, defaultDetector string) (*translation.Registry, error) {
	registry := translation.NewRegistry(defaultDetector)
	for _, detector := range []translation.Detector{
		provider,
		langdetect.NewLingua(),
		langdetect.NewWhatlang(),
	} {
		if err := registry.Register(detector); err != nil {
			return nil, fmt.Errorf("register detector: %w", err)
		}
	}
	return registry, nil
}

func newSessionManager(cfg *config.Config, detector translation.Detector, translator translation.Translator, logger zerolog.Logger) *preview.Manager {
	factory := func(sessionID string) *preview.Orchestrator {
		sessionLogger := logging.Component(logger, "preview").With().Str("session_id", sessionID).Logger()
		return preview.New(detector, translator, sessionLogger, preview.Options{
			QuietPeriod:     cfg.PreviewQuietPeriod,
			CallTimeout:     cfg.PreviewCallTimeout,
			NoticeTTL:       cfg.NoticeTTL,
			DefaultLanguage: language.Default,
		})
	}
	return preview.NewManager(factory, preview.ManagerOptions{
		IdleTTL:     cfg.SessionIdleTTL,
		MaxSessions: cfg.MaxSessions,
	}, logging.Component(logger, "session_manager"))
}

func buildServices(cfg *config.Config, logger zerolog.Logger) (*services, error) {
	client := newLLMClient(cfg)
	provider := translation.NewModelProvider(client, logger)

	registry, err := newDetectorRegistry(provider, cfg.DetectorName())
	if err != nil {
		return nil, err
	}
	detector, err := registry.Detector("")
	if err != nil {
		return nil, fmt.Errorf("resolve detector %q: %w", cfg.DetectorName(), err)
	}

	return &services{
		client:   client,
		provider: provider,
		detector: detector,
		sessions: newSessionManager(cfg, detector, provider, logger),
	}, nil
}
