package learned

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// feature is one non-zero entry of a sparse document vector.
type feature struct {
	index int
	value float64
}

// vectorizer turns text into L2-normalized TF-IDF vectors over unigrams and
// bigrams. It is immutable after fit.
type vectorizer struct {
	vocabulary  map[string]int
	idf         []float64
	minDF       int
	maxFeatures int
}

func newVectorizer(minDF, maxFeatures int) *vectorizer {
	return &vectorizer{minDF: minDF, maxFeatures: maxFeatures}
}

// analyze lowercases, tokenizes, drops stop words and emits unigrams followed by bigrams.
func analyze(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if !englishStopWords[t] {
			tokens = append(tokens, t)
		}
	}
	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// fit learns the vocabulary and IDF weights, returning the training matrix.
// It returns nil when no term survives the document-frequency cut.
func (v *vectorizer) fit(texts []string) [][]feature {
	docs := make([][]string, len(texts))
	df := map[string]int{}
	tf := map[string]int{}
	for i, text := range texts {
		docs[i] = analyze(text)
		seen := map[string]bool{}
		for _, term := range docs[i] {
			tf[term]++
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	kept := make([]string, 0, len(df))
	for term, n := range df {
		if n >= v.minDF {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	if v.maxFeatures > 0 && len(kept) > v.maxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if tf[kept[i]] != tf[kept[j]] {
				return tf[kept[i]] > tf[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:v.maxFeatures]
	}
	sort.Strings(kept)

	n := float64(len(texts))
	v.vocabulary = make(map[string]int, len(kept))
	v.idf = make([]float64, len(kept))
	for i, term := range kept {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	matrix := make([][]feature, len(docs))
	for i, terms := range docs {
		matrix[i] = v.vectorize(terms)
	}
	return matrix
}

func (v *vectorizer) transform(text string) []feature {
	return v.vectorize(analyze(text))
}

func (v *vectorizer) vectorize(terms []string) []feature {
	counts := map[int]float64{}
	for _, term := range terms {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	out := make([]feature, 0, len(counts))
	var norm float64
	for idx, c := range counts {
		w := c * v.idf[idx]
		out = append(out, feature{index: idx, value: w})
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range out {
			out[i].value /= norm
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

func (v *vectorizer) size() int {
	return len(v.idf)
}
