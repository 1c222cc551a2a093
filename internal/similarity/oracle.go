package similarity

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/credencehq/credence/internal/domain"
	gocache "github.com/patrickmn/go-cache"
)

const (
	embeddingCacheTTL     = 30 * time.Minute
	embeddingCacheCleanup = 10 * time.Minute
)

// synonymGroups maps common phrasings onto a canonical token so that
// mechanical rewordings score as exact duplicates without an embedding
// round trip. Lookup is per normalized word.
var synonymGroups = map[string]string{
	"decrease": "reduce",
	"lower":    "reduce",
	"lessen":   "reduce",
	"cut":      "reduce",
	"reduces":  "reduce",
	"increase": "raise",
	"boost":    "raise",
	"raises":   "raise",
	"grow":     "raise",
	"causes":   "cause",
	"leads":    "cause",
	"results":  "cause",
	"produces": "cause",
	"improve":  "improve",
	"improves": "improve",
	"enhance":  "improve",
	"better":   "improve",
	"harm":     "harm",
	"harms":    "harm",
	"damage":   "harm",
	"hurt":     "harm",
}

// stopwords dropped during normalization. Articles and light verbs
// carry no stance information.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"to": true, "of": true, "in": true, "on": true, "at": true,
	"that": true, "this": true, "it": true, "will": true, "would": true,
	"can": true, "could": true, "and": true, "or": true,
}

// Oracle scores semantic closeness of two statements. Mechanically
// equivalent statements (same tokens after normalization and synonym
// canonicalization) short-circuit to 1.0; everything else falls through
// to embedding cosine similarity. Embeddings are memoized because the
// redundancy detector compares every new argument against all siblings.
type Oracle struct {
	embedder domain.EmbeddingClient
	cache    *gocache.Cache
}

func NewOracle(embedder domain.EmbeddingClient) *Oracle {
	return &Oracle{
		embedder: embedder,
		cache:    gocache.New(embeddingCacheTTL, embeddingCacheCleanup),
	}
}

func (o *Oracle) Similarity(ctx context.Context, textA, textB string) (float64, error) {
	normA := Normalize(textA)
	normB := Normalize(textB)
	if normA != "" && normA == normB {
		return 1.0, nil
	}

	vecA, err := o.embed(ctx, textA)
	if err != nil {
		return 0, fmt.Errorf("embed first statement: %w", err)
	}
	vecB, err := o.embed(ctx, textB)
	if err != nil {
		return 0, fmt.Errorf("embed second statement: %w", err)
	}

	sim := Cosine(vecA, vecB)
	// Similarity is reported on [0,1]; anti-correlated vectors are
	// simply "not similar".
	if sim < 0 {
		sim = 0
	}
	return sim, nil
}

func (o *Oracle) embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := o.cache.Get(text); ok {
		return cached.([]float32), nil
	}
	vec, err := o.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	o.cache.Set(text, vec, gocache.DefaultExpiration)
	return vec, nil
}

// Normalize lowercases, strips punctuation and stopwords, folds
// synonyms onto canonical tokens and sorts what remains. Two statements
// with equal normal forms are mechanically equivalent.
func Normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, w := range strings.Fields(b.String()) {
		if stopwords[w] {
			continue
		}
		if canonical, ok := synonymGroups[w]; ok {
			w = canonical
		}
		tokens = append(tokens, w)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Cosine computes cosine similarity between two vectors. Mismatched or
// zero-length vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
