package learned

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var companies = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Stark", "Wayne", "Tyrell", "Cyberdyne"}

func labeledRows(n int) ([]string, []model.Label) {
	texts := make([]string, 0, n)
	labels := make([]model.Label, 0, n)
	for i := 0; i < n; i++ {
		company := companies[i%len(companies)]
		if i%2 == 0 {
			texts = append(texts, fmt.Sprintf(
				"Interview invitation for backend engineer role at %s Thank you for your application recruiting@%s.com",
				company, company))
			labels = append(labels, model.LabelPositive)
			continue
		}
		texts = append(texts, fmt.Sprintf(
			"Weekly newsletter huge sale discount deals on shoes from %s unsubscribe anytime deals@%s-shop.com",
			company, company))
		labels = append(labels, model.LabelNegative)
	}
	return texts, labels
}

func TestPredictBeforeTraining(t *testing.T) {
	f := NewFilter()
	p := f.Predict("Interview", "schedule", "hr@acme.com")
	assert.Equal(t, Prediction{}, p)
	assert.False(t, p.Ready())
	assert.Zero(t, p.Confidence)
	assert.False(t, f.Ready())
}

func TestTrainRequiresMinimumExamples(t *testing.T) {
	f := NewFilter()

	texts, labels := labeledRows(25)
	assert.False(t, f.Train(texts, labels))
	assert.False(t, f.Predict("Interview invitation", "", "").Ready())

	texts, labels = labeledRows(35)
	require.True(t, f.Train(texts, labels))

	p := f.Predict("Interview invitation for data engineer role", "Thank you for your application", "recruiting@initech.com")
	assert.True(t, p.Ready())
	assert.Equal(t, model.LabelPositive, p.Label)
	assert.Greater(t, p.Confidence, 0.5)

	p = f.Predict("Huge sale on shoes", "discount deals, unsubscribe anytime", "deals@hooli-shop.com")
	assert.Equal(t, model.LabelNegative, p.Label)
	assert.Greater(t, p.Confidence, 0.5)
}

func TestFailedTrainKeepsExistingModel(t *testing.T) {
	f := NewFilter()
	texts, labels := labeledRows(40)
	require.True(t, f.Train(texts, labels))
	before := f.Predict("Interview invitation", "backend engineer role", "recruiting@acme.com")

	few, fewLabels := labeledRows(10)
	assert.False(t, f.Train(few, fewLabels))
	assert.Equal(t, 40, f.ExampleCount())
	assert.Equal(t, before, f.Predict("Interview invitation", "backend engineer role", "recruiting@acme.com"))
}

func TestTrainRejectsDegenerateInput(t *testing.T) {
	f := NewFilter(WithMinExamples(4))

	texts, _ := labeledRows(10)
	single := make([]model.Label, len(texts))
	for i := range single {
		single[i] = model.LabelPositive
	}
	assert.False(t, f.Train(texts, single), "single class")

	assert.False(t, f.Train([]string{"alpha", "beta", "gamma", "delta"},
		[]model.Label{model.LabelPositive, model.LabelNegative, model.LabelPositive, model.LabelNegative}),
		"no term reaches the document frequency floor")

	assert.False(t, f.Train(texts, single[:3]), "length mismatch")
	assert.False(t, f.Ready())
}

func TestTrainIsDeterministic(t *testing.T) {
	texts, labels := labeledRows(36)
	a, b := NewFilter(), NewFilter()
	require.True(t, a.Train(texts, labels))
	require.True(t, b.Train(texts, labels))

	assert.Equal(t,
		a.Predict("Interview at Globex", "role", "talent@globex.com"),
		b.Predict("Interview at Globex", "role", "talent@globex.com"))
}

func TestConcurrentPredictDuringTrain(t *testing.T) {
	f := NewFilter()
	texts, labels := labeledRows(40)
	require.True(t, f.Train(texts, labels))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p := f.Predict("Interview invitation", "role", "recruiting@acme.com")
				assert.True(t, p.Ready())
			}
		}()
	}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, f.Train(texts, labels))
		}()
	}
	wg.Wait()
}

func TestAnalyzeDropsStopWordsBeforeBigrams(t *testing.T) {
	assert.Equal(t, []string{"offer", "letter", "offer letter"}, analyze("The offer, for the letter!"))
}

type memoryStore struct {
	examples []model.TrainingExample
	err      error
}

func (m *memoryStore) SaveTrainingExample(_ context.Context, ex *model.TrainingExample) error {
	m.examples = append(m.examples, *ex)
	return nil
}

func (m *memoryStore) ListTrainingExamples(context.Context) ([]model.TrainingExample, error) {
	return m.examples, m.err
}

func (m *memoryStore) CountTrainingExamples(context.Context) (int, error) {
	return len(m.examples), m.err
}

func TestTrainerRefresh(t *testing.T) {
	store := &memoryStore{}
	f := NewFilter()
	trainer := NewTrainer(store, f)

	texts, labels := labeledRows(25)
	for i := range texts {
		require.NoError(t, store.SaveTrainingExample(context.Background(), &model.TrainingExample{Subject: texts[i], Label: labels[i]}))
	}

	res, err := trainer.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RefreshResult{Examples: 25, Trained: false}, res)

	texts, labels = labeledRows(35)
	store.examples = nil
	for i := range texts {
		require.NoError(t, store.SaveTrainingExample(context.Background(), &model.TrainingExample{Subject: texts[i], Label: labels[i]}))
	}
	res, err = trainer.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Trained)
	assert.Equal(t, 35, f.ExampleCount())
}
