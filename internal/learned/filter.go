// Package learned implements the self-learning gate of the inbox cascade: a
// TF-IDF and logistic regression model retrained from user feedback.
package learned

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/krishhsuri/Orbit/internal/model"
)

// Defaults for a Filter.
const (
	DefaultMinExamples         = 30
	DefaultConfidenceThreshold = 0.75

	maxFeatures = 5000
	minDF       = 2
)

// Prediction is the outcome of Filter.Predict. Label is empty until the
// filter has been trained successfully.
type Prediction struct {
	Label      model.Label
	Confidence float64
}

// Ready reports whether the prediction came from a trained model.
func (p Prediction) Ready() bool {
	return p.Label != ""
}

// Trusted reports whether the prediction clears threshold.
func (p Prediction) Trusted(threshold float64) bool {
	return p.Ready() && p.Confidence >= threshold
}

// snapshot is one immutable trained model.
type snapshot struct {
	trainedAt  time.Time
	vectorizer *vectorizer
	classifier *logistic
	classes    []model.Label
	examples   int
}

// Filter is an injectable, thread-safe learned classifier. Predict holds the
// read lock for the duration of inference; a trained model is swapped in
// under the write lock so readers never observe a partial model.
type Filter struct {
	current     *snapshot
	logger      *slog.Logger
	minExamples int
	mu          sync.RWMutex
	trainMu     sync.Mutex
}

// Option configures a Filter.
type Option func(*Filter)

// WithMinExamples overrides the minimum number of rows required to train.
func WithMinExamples(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.minExamples = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFilter creates an untrained filter.
func NewFilter(opts ...Option) *Filter {
	f := &Filter{
		minExamples: DefaultMinExamples,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MinExamples returns the training threshold.
func (f *Filter) MinExamples() int {
	return f.minExamples
}

// Train fits a new model on the full label set and swaps it in. It returns
// false, leaving any existing model untouched, when there are fewer than
// MinExamples rows, fewer than two classes, or no usable vocabulary.
func (f *Filter) Train(texts []string, labels []model.Label) bool {
	if len(texts) != len(labels) {
		f.logger.Warn("Training rejected: texts and labels differ in length",
			"texts", len(texts), "labels", len(labels))
		return false
	}
	if len(texts) < f.minExamples {
		f.logger.Info("Not enough examples to train learned filter",
			"examples", len(texts), "required", f.minExamples)
		return false
	}

	f.trainMu.Lock()
	defer f.trainMu.Unlock()

	snap := fit(texts, labels)
	if snap == nil {
		f.logger.Warn("Learned filter training produced no model", "examples", len(texts))
		return false
	}

	f.mu.Lock()
	f.current = snap
	f.mu.Unlock()

	f.logger.Info("Learned filter trained",
		"examples", snap.examples,
		"features", snap.vectorizer.size(),
		"classes", len(snap.classes))
	return true
}

func fit(texts []string, labels []model.Label) *snapshot {
	classes := distinct(labels)
	if len(classes) < 2 {
		return nil
	}
	index := make(map[model.Label]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = index[l]
	}

	vec := newVectorizer(minDF, maxFeatures)
	x := vec.fit(texts)
	if x == nil {
		return nil
	}

	clf := fitLogistic(x, y, len(classes), vec.size(), fitOptions{c: 1.0, maxIter: 1000, tolerance: 1e-6})
	return &snapshot{
		vectorizer: vec,
		classifier: clf,
		classes:    classes,
		examples:   len(texts),
		trainedAt:  time.Now(),
	}
}

// Predict classifies subject, snippet and sender. Before any successful
// Train it returns the zero Prediction.
func (f *Filter) Predict(subject, snippet, sender string) Prediction {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.current == nil {
		return Prediction{}
	}
	snap := f.current
	probs := make([]float64, len(snap.classes))
	snap.classifier.probabilities(snap.vectorizer.transform(subject+" "+snippet+" "+sender), probs)

	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return Prediction{Label: snap.classes[best], Confidence: probs[best]}
}

// Ready reports whether a model has been trained.
func (f *Filter) Ready() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current != nil
}

// ExampleCount returns the number of rows the current model was trained on.
func (f *Filter) ExampleCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current == nil {
		return 0
	}
	return f.current.examples
}

func distinct(labels []model.Label) []model.Label {
	seen := map[model.Label]bool{}
	var out []model.Label
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
