package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/adapters/httpapi"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/factory"
	"github.com/mikey/mail-triage/internal/logging"
	"github.com/mikey/mail-triage/internal/orgdomain"
	"github.com/mikey/mail-triage/internal/scoring"
	"github.com/mikey/mail-triage/internal/utils"
)

// Options are the command line settings that shape the container
type Options struct {
	ConfigFile string
	Verbose    bool
}

// BuildContainer creates and configures a dependency injection container
func BuildContainer(opts Options) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.NewWithFile(opts.ConfigFile)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(cfg *config.Config) (*zap.Logger, error) {
		if opts.Verbose {
			return logging.InitConsoleLogger(true, cfg.GetString("logging.format") == "json")
		}
		return logging.InitLogger(cfg)
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNERFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewAnalysisFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(tp *utils.TextProcessor) core.BodyProcessor {
		return tp
	}); err != nil {
		return nil, err
	}

	// Register analysis components
	if err := container.Provide(func(f *factory.AnalysisFactory) (core.TextNormalizer, error) {
		return f.CreateNormalizer()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.AnalysisFactory) (*scoring.Lexicon, error) {
		return f.LoadLexicon()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.AnalysisFactory, lex *scoring.Lexicon) (core.Categorizer, error) {
		return f.CreateCategorizer(lex)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.AnalysisFactory) (*orgdomain.Checker, error) {
		return f.CreateOrgChecker()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.AnalysisFactory, lex *scoring.Lexicon, orgs *orgdomain.Checker) (core.PriorityScorer, error) {
		return f.CreateScorer(lex, orgs)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.AnalysisFactory) (core.TriageOptions, error) {
		return f.TriageOptions()
	}); err != nil {
		return nil, err
	}

	// Register entity extractor
	if err := container.Provide(func(f *factory.NERFactory) (core.EntityExtractor, error) {
		return f.CreateEntityExtractor(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register override ledger and store
	if err := container.Provide(func(f *factory.StoreFactory) (core.OverrideLedger, error) {
		return f.CreateLedger()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.StoreFactory) (core.OverrideStore, error) {
		return f.CreateOverrideStore()
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(core.NewTriageService); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(service *core.TriageService, logger *zap.Logger, cfg *config.Config) *httpapi.Server {
		return httpapi.NewServer(service, logger, cfg.GetServer().ListenAddress)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
