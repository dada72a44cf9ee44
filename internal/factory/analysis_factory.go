package factory

import (
	"fmt"

	"github.com/mikey/mail-triage/internal/categorizer"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/nlp"
	"github.com/mikey/mail-triage/internal/orgdomain"
	"github.com/mikey/mail-triage/internal/scoring"
	"go.uber.org/zap"
)

// AnalysisFactory creates the text analysis and scoring components
type AnalysisFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAnalysisFactory creates a new analysis factory
func NewAnalysisFactory(cfg *config.Config, logger *zap.Logger) *AnalysisFactory {
	return &AnalysisFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNormalizer builds the normalizer. A missing lemmatizer dictionary
// degrades to unlemmatized tokens instead of failing.
func (f *AnalysisFactory) CreateNormalizer() (*nlp.Normalizer, error) {
	ac := f.cfg.GetAnalysis()

	stopwords := nlp.EnglishStopwords()
	if ac.StopwordsFile != "" {
		loaded, err := nlp.LoadStopwords(ac.StopwordsFile)
		if err != nil {
			return nil, err
		}
		stopwords = loaded
	}

	var lemmatizer nlp.Lemmatizer
	switch ac.Lemmatizer {
	case "golem", "":
		golem, err := nlp.NewGolemLemmatizer()
		if err != nil {
			f.logger.Warn("Lemmatizer unavailable, tokens will not be lemmatized",
				zap.Error(core.NewResourceUnavailable("golem dictionary", err)))
		} else {
			lemmatizer = golem
		}
	case "none":
	default:
		return nil, fmt.Errorf("unsupported lemmatizer: %s", ac.Lemmatizer)
	}

	n := nlp.NewNormalizer(stopwords, lemmatizer, f.logger)
	f.logger.Info("Created normalizer", zap.Stringer("normalizer", n))
	return n, nil
}

// LoadLexicon returns the configured lexicon, or the built-in one
func (f *AnalysisFactory) LoadLexicon() (*scoring.Lexicon, error) {
	sc, err := f.cfg.GetScoring()
	if err != nil {
		return nil, err
	}
	if sc.LexiconFile == "" {
		return scoring.DefaultLexicon(), nil
	}
	lex, err := scoring.LoadLexicon(sc.LexiconFile)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Loaded lexicon", zap.String("file", sc.LexiconFile))
	return lex, nil
}

// CreateCategorizer builds the categorizer from the lexicon's keyword sets
func (f *AnalysisFactory) CreateCategorizer(lex *scoring.Lexicon) (*categorizer.Categorizer, error) {
	keywords, err := categorizer.NewKeywords(lex.Categories)
	if err != nil {
		return nil, err
	}
	return categorizer.New(keywords, f.logger), nil
}

// CreateOrgChecker builds the organization domain checker
func (f *AnalysisFactory) CreateOrgChecker() (*orgdomain.Checker, error) {
	sc, err := f.cfg.GetScoring()
	if err != nil {
		return nil, err
	}
	if len(sc.OrganizationDomains) > 0 {
		f.logger.Info("Loaded organization domains", zap.Strings("domains", sc.OrganizationDomains))
	}
	return orgdomain.NewChecker(sc.OrganizationDomains, f.logger), nil
}

// CreateScorer builds the priority scorer
func (f *AnalysisFactory) CreateScorer(lex *scoring.Lexicon, orgs *orgdomain.Checker) (*scoring.Scorer, error) {
	sc, err := f.cfg.GetScoring()
	if err != nil {
		return nil, err
	}
	return scoring.NewScorer(lex, orgs, scoring.Options{
		SenderWeight:    sc.SenderWeight,
		RecencyWeight:   sc.RecencyWeight,
		ContentWeight:   sc.ContentWeight,
		PatternWeight:   sc.PatternWeight,
		ReplyBonus:      sc.ReplyBonus,
		ReplyWindow:     sc.ReplyWindow,
		MaxScore:        sc.MaxScore,
		HighThreshold:   sc.HighThreshold,
		MediumThreshold: sc.MediumThreshold,
	}, f.logger)
}

// TriageOptions returns the service tuning from configuration
func (f *AnalysisFactory) TriageOptions() (core.TriageOptions, error) {
	nerCfg, err := f.cfg.GetNER()
	if err != nil {
		return core.TriageOptions{}, err
	}
	return core.TriageOptions{
		Workers:       f.cfg.GetAnalysis().Workers,
		EntityTimeout: nerCfg.Timeout,
	}, nil
}
