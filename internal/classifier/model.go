package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
)

// Artifact load errors. A failed load is fatal to the scoring pipeline:
// the process must refuse to serve scans without a model.
var (
	// ErrVocabularyEmpty is returned when the artifact has no terms.
	ErrVocabularyEmpty = errors.New("model artifact has an empty vocabulary")

	// ErrShapeMismatch is returned when the idf or weight vectors do not
	// match the vocabulary size.
	ErrShapeMismatch = errors.New("model artifact vector lengths do not match vocabulary size")

	// ErrIndexOutOfRange is returned when a vocabulary entry points
	// outside the feature vector.
	ErrIndexOutOfRange = errors.New("model artifact vocabulary index out of range")

	// ErrUnknownNormalization is returned when the artifact declares a
	// normalization variant this scorer does not implement.
	ErrUnknownNormalization = errors.New("model artifact declares an unknown normalization variant")
)

// tokenPattern splits normalized text into vectorizer terms: runs of two or
// more word characters, matching how the offline vectorizer tokenized the
// training corpus.
var tokenPattern = regexp.MustCompile(`\w\w+`)

// artifact is the on-disk JSON shape of the frozen model.
// It bundles the TF-IDF vectorizer (vocabulary + idf) with the logistic
// classifier (weights + intercept) so the two can never drift apart.
type artifact struct {
	Normalization Normalization  `json:"normalization"`
	Vocabulary    map[string]int `json:"vocabulary"`
	IDF           []float64      `json:"idf"`
	Weights       []float64      `json:"weights"`
	Intercept     float64        `json:"intercept"`
}

// Model is the frozen vectorizer + classifier pair, read-only after Load.
type Model struct {
	normalization Normalization
	vocabulary    map[string]int
	idf           []float64
	weights       []float64
	intercept     float64
}

// Load reads and validates a model artifact from path.
// Any error here means the pipeline has no usable model; callers must treat
// it as a startup failure, not a per-request condition.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Operator-provided artifact path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}

	return newModel(a)
}

// newModel validates the artifact shape and freezes it into a Model.
func newModel(a artifact) (*Model, error) {
	if len(a.Vocabulary) == 0 {
		return nil, ErrVocabularyEmpty
	}
	if len(a.IDF) != len(a.Vocabulary) || len(a.Weights) != len(a.Vocabulary) {
		return nil, fmt.Errorf("%w: vocabulary=%d idf=%d weights=%d",
			ErrShapeMismatch, len(a.Vocabulary), len(a.IDF), len(a.Weights))
	}
	for term, idx := range a.Vocabulary {
		if idx < 0 || idx >= len(a.IDF) {
			return nil, fmt.Errorf("%w: term %q -> %d", ErrIndexOutOfRange, term, idx)
		}
	}
	if a.Normalization == "" {
		a.Normalization = NormalizationLowercase
	}
	if !a.Normalization.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNormalization, a.Normalization)
	}

	return &Model{
		normalization: a.Normalization,
		vocabulary:    a.Vocabulary,
		idf:           a.IDF,
		weights:       a.Weights,
		intercept:     a.Intercept,
	}, nil
}

// Normalization returns the variant the model applies before vectorizing.
func (m *Model) Normalization() Normalization {
	return m.normalization
}

// Predict maps raw email text to a phishing probability in [0,1].
// Empty text yields the zero feature vector, so the result is the model's
// base rate sigmoid(intercept).
func (m *Model) Predict(text string) float64 {
	normalized := m.normalization.Apply(text)

	// Term-frequency counts over the fixed vocabulary.
	tf := make(map[int]float64)
	for _, token := range tokenPattern.FindAllString(normalized, -1) {
		if idx, ok := m.vocabulary[token]; ok {
			tf[idx]++
		}
	}

	// TF-IDF with L2 normalization, then the logistic link.
	var norm float64
	features := make(map[int]float64, len(tf))
	for idx, count := range tf {
		v := count * m.idf[idx]
		features[idx] = v
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
	}

	z := m.intercept
	for idx, v := range features {
		if norm > 0 {
			v /= norm
		}
		z += m.weights[idx] * v
	}

	return sigmoid(z)
}

// sigmoid is the logistic link function.
func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
