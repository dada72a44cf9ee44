package factory

import (
	"context"
	"fmt"

	"github.com/mikey/mail-triage/internal/adapters/bedrock"
	"github.com/mikey/mail-triage/internal/adapters/gemini"
	"github.com/mikey/mail-triage/internal/adapters/ner"
	"github.com/mikey/mail-triage/internal/adapters/openai"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/utils"
	"go.uber.org/zap"
)

// NERFactory creates entity extractors
type NERFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewNERFactory creates a new entity extractor factory
func NewNERFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *NERFactory {
	return &NERFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEntityExtractor creates the extractor selected by ner.provider. The
// "none" provider, or a model provider that cannot be set up, yields a nil
// extractor and the pipeline runs without entities.
func (f *NERFactory) CreateEntityExtractor(ctx context.Context) (core.EntityExtractor, error) {
	nerCfg, err := f.cfg.GetNER()
	if err != nil {
		return nil, err
	}

	switch nerCfg.Provider {
	case "rules", "":
		return ner.NewRuleExtractor(f.logger), nil
	case "none":
		f.logger.Warn("Entity extraction disabled",
			zap.Error(core.NewResourceUnavailable("ner model", nil)))
		return nil, nil
	case "openai":
		extractor, err := openai.NewFactory(f.cfg.GetOpenAI(), f.logger, f.textProcessor).CreateEntityExtractor()
		if err != nil {
			return f.unavailable(nerCfg.Provider, err), nil
		}
		return extractor, nil
	case "gemini":
		extractor, err := gemini.NewFactory(f.cfg.GetGemini(), f.logger, f.textProcessor).CreateEntityExtractor(ctx)
		if err != nil {
			return f.unavailable(nerCfg.Provider, err), nil
		}
		return extractor, nil
	case "bedrock":
		extractor, err := bedrock.NewFactory(f.cfg.GetBedrock(), f.logger, f.textProcessor).CreateEntityExtractor(ctx)
		if err != nil {
			return f.unavailable(nerCfg.Provider, err), nil
		}
		return extractor, nil
	default:
		return nil, fmt.Errorf("unsupported ner provider: %s", nerCfg.Provider)
	}
}

func (f *NERFactory) unavailable(provider string, err error) core.EntityExtractor {
	f.logger.Warn("Entity model unavailable, continuing without entities",
		zap.String("provider", provider),
		zap.Error(core.NewResourceUnavailable(provider+" model", err)))
	return nil
}
