// Package pipeline composes the inbox cascade into its two operating modes,
// a cheap local intake scan and a deep LLM commit decision, and drives them
// over a mailbox and the staging store.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/krishhsuri/Orbit/internal/classification"
	"github.com/krishhsuri/Orbit/internal/filter"
	"github.com/krishhsuri/Orbit/internal/learned"
	"github.com/krishhsuri/Orbit/internal/metrics"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/nlp"
)

// Stages that can decide a quick parse.
const (
	StageMalformed   = "malformed"
	StageLearned     = "learned_filter"
	StageQuickFilter = "quick_filter"
	StageClassifier  = "classifier"
	StageLLM         = "llm_extraction"
)

const (
	malformedConfidence   = 0.9
	quickRejectConfidence = 0.9
	// enrichBelow triggers extraction-only LLM calls for weak local results.
	enrichBelow = 0.7
	// llmFloor is the confidence of a result the LLM enriched.
	llmFloor = 0.8
	// keepWithoutCompany is the minimum confidence for a result with no company.
	keepWithoutCompany = 0.5
)

// Decider is the LLM collaborator as seen by the pipeline.
type Decider interface {
	Extract(ctx context.Context, key, text string) (model.Extraction, bool)
	Decide(ctx context.Context, subject, body string) model.CommitDecision
}

// ParseResult is the output of QuickParse: the classification plus every
// intermediate stage verdict.
type ParseResult struct {
	Learned learned.Prediction
	Verdict filter.Verdict
	Stage   string
	Result  model.ClassificationResult
	Signals nlp.Signals
}

// Staged reports whether the result warrants a staging record.
func (p ParseResult) Staged() bool {
	if !p.Result.Category.IsJobRelated() {
		return false
	}
	return p.Result.Entities.Company != "" || p.Result.Confidence >= keepWithoutCompany
}

// Orchestrator owns the cascade components. QuickParse performs no network
// I/O; only Enrich and ProcessWithLLM reach the Decider.
type Orchestrator struct {
	quick            filter.QuickFilter
	analyzer         *nlp.Analyzer
	classifier       *classification.PatternClassifier
	learned          *learned.Filter
	decider          Decider
	learnedThreshold float64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLearnedFilter installs the learned gate. A nil filter disables it.
func WithLearnedFilter(f *learned.Filter, threshold float64) Option {
	return func(o *Orchestrator) {
		o.learned = f
		if threshold > 0 {
			o.learnedThreshold = threshold
		}
	}
}

// WithDecider installs the LLM collaborator.
func WithDecider(d Decider) Option {
	return func(o *Orchestrator) {
		o.decider = d
	}
}

// WithAnalyzer replaces the default analyzer.
func WithAnalyzer(a *nlp.Analyzer) Option {
	return func(o *Orchestrator) {
		o.analyzer = a
	}
}

// WithClassifier replaces the default pattern classifier.
func WithClassifier(c *classification.PatternClassifier) Option {
	return func(o *Orchestrator) {
		o.classifier = c
	}
}

// NewOrchestrator creates an orchestrator with the rule-based entity
// extractor and default patterns.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		quick:            filter.New(),
		analyzer:         nlp.NewAnalyzer(nlp.RuleExtractor{}),
		classifier:       classification.NewPatternClassifier(),
		learnedThreshold: learned.DefaultConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HasDecider reports whether an LLM collaborator is configured.
func (o *Orchestrator) HasDecider() bool {
	return o.decider != nil
}

// Analyze exposes the NLP stage on its own.
func (o *Orchestrator) Analyze(email model.RawEmail) nlp.Signals {
	return o.analyzer.Analyze(email)
}

// QuickParse runs the local cascade: learned gate, quick filter, NLP
// analysis, pattern classification. It never fails; malformed input and
// missing optional models degrade to the remaining layers.
func (o *Orchestrator) QuickParse(email model.RawEmail, userEmail string) ParseResult {
	start := time.Now()
	defer func() { metrics.RecordQuickParse(time.Since(start)) }()

	res := o.quickParse(email, userEmail)
	metrics.RecordStageVerdict(res.Stage, string(res.Result.Category))
	slog.Debug("Quick parse",
		"source_id", email.SourceID,
		"stage", res.Stage,
		"category", res.Result.Category,
		"confidence", res.Result.Confidence)
	return res
}

func (o *Orchestrator) quickParse(email model.RawEmail, userEmail string) ParseResult {
	if email.IsMalformed() {
		return ParseResult{
			Stage:  StageMalformed,
			Result: model.NotJobRelated(malformedConfidence, model.OriginLocal, "malformed_email"),
		}
	}

	var res ParseResult
	if o.learned != nil {
		res.Learned = o.learned.Predict(email.Subject, email.Snippet, email.FromAddress)
		if res.Learned.Trusted(o.learnedThreshold) && res.Learned.Label == model.LabelNegative {
			res.Stage = StageLearned
			res.Result = model.NotJobRelated(res.Learned.Confidence, model.OriginLearned, "learned_negative")
			return res
		}
	}

	res.Verdict = o.quick.Admit(email.FromAddress, email.Subject)
	if !res.Verdict.Admitted {
		res.Stage = StageQuickFilter
		res.Result = model.NotJobRelated(quickRejectConfidence, model.OriginLocal, "quick_filter:"+string(res.Verdict.Reason))
		return res
	}

	res.Signals = o.analyzer.Analyze(email)
	res.Stage = StageClassifier
	res.Result = o.classifier.Classify(email, res.Signals, userEmail)
	return res
}

// Enrich runs the extraction-only LLM call when the local result is weak or
// has no company. Extracted fields replace local guesses and confidence rises
// to at least 0.8. The category never changes.
func (o *Orchestrator) Enrich(ctx context.Context, email model.RawEmail, res ParseResult) ParseResult {
	if o.decider == nil || !res.Result.Category.IsJobRelated() {
		return res
	}
	if res.Result.Confidence >= enrichBelow && res.Result.Entities.Company != "" {
		return res
	}

	extraction, ok := o.decider.Extract(ctx, email.SourceID, email.Text())
	if !ok || extraction.Empty() {
		return res
	}

	entities := res.Result.Entities
	entities.Company = firstNonEmpty(extraction.Company, entities.Company)
	entities.Role = firstNonEmpty(extraction.Role, entities.Role)
	entities.JobURL = firstNonEmpty(extraction.JobURL, entities.JobURL)

	res.Result.Entities = entities
	res.Result.Origin = model.OriginLLM
	res.Result.Confidence = max(res.Result.Confidence, llmFloor)
	res.Stage = StageLLM
	metrics.RecordStageVerdict(StageLLM, string(res.Result.Category))
	return res
}

// ProcessWithLLM asks the LLM for the authoritative commit decision. Any
// failure yields a degraded discard.
func (o *Orchestrator) ProcessWithLLM(ctx context.Context, email model.RawEmail) model.CommitDecision {
	if o.decider == nil {
		return model.Discard("llm not configured", true)
	}
	if email.IsMalformed() {
		return model.Discard("malformed email", false)
	}
	return o.decider.Decide(ctx, email.Subject, email.Body())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
