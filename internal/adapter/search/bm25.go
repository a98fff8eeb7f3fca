package search

import (
	"math"
	"path/filepath"
	"sort"
	"strings"

	"mdrun/internal/domain"
)

// BM25 ranks fenced blocks against a free text query. The language tag is
// indexed as an extra term of every block and path components boost blocks
// whose file name matches the query.
type BM25 struct {
	tokenizer       *Tokenizer
	k1              float64
	b               float64
	pathBoostWeight float64
}

func NewBM25(tokenizer *Tokenizer, k1, b, pathBoostWeight float64) *BM25 {
	return &BM25{
		tokenizer:       tokenizer,
		k1:              k1,
		b:               b,
		pathBoostWeight: pathBoostWeight,
	}
}

// Rank scores blocks against query and returns the best k, highest first.
// Blocks that match no query term are left out. k <= 0 returns every match.
func (r *BM25) Rank(query string, blocks []domain.Block, k int) []domain.ScoredBlock {
	queryTokens := r.tokenizer.Tokenize(query)
	if len(queryTokens) == 0 || len(blocks) == 0 {
		return nil
	}

	queryTokenSet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		queryTokenSet[t] = struct{}{}
	}

	tfs := make([]map[string]int, len(blocks))
	lengths := make([]int, len(blocks))
	df := make(map[string]int)
	total := 0

	for i, blk := range blocks {
		tokens := r.tokenizer.Tokenize(blk.Text)
		if blk.LanguageTag != "" {
			tokens = append(tokens, strings.ToLower(blk.LanguageTag))
		}
		tf := make(map[string]int)
		for _, t := range tokens {
			tf[t]++
		}
		for t := range tf {
			df[t]++
		}
		tfs[i] = tf
		lengths[i] = len(tokens)
		total += len(tokens)
	}

	N := float64(len(blocks))
	avgDl := float64(total) / N
	if avgDl == 0 {
		avgDl = 1
	}

	var results []domain.ScoredBlock
	pathBoosts := make(map[string]float64)

	for i, blk := range blocks {
		score := 0.0
		dl := float64(lengths[i])
		for term := range queryTokenSet {
			tf := float64(tfs[i][term])
			if tf == 0 {
				continue
			}
			n := float64(df[term])
			idf := math.Log((N-n+0.5)/(n+0.5) + 1)
			score += idf * (tf * (r.k1 + 1)) / (tf + r.k1*(1-r.b+r.b*dl/avgDl))
		}
		if score == 0 {
			continue
		}

		if r.pathBoostWeight > 0 {
			boost, ok := pathBoosts[blk.Path]
			if !ok {
				boost = calculatePathBoost(blk.Path, queryTokenSet)
				pathBoosts[blk.Path] = boost
			}
			score *= 1 + boost*r.pathBoostWeight
		}

		results = append(results, domain.ScoredBlock{Block: blk, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

func calculatePathBoost(path string, queryTokenSet map[string]struct{}) float64 {
	pathTokens := tokenizePath(path)
	if len(pathTokens) == 0 || len(queryTokenSet) == 0 {
		return 0
	}

	matches := 0
	for _, pt := range pathTokens {
		if _, exists := queryTokenSet[pt]; exists {
			matches++
		}
	}

	return float64(matches) / float64(len(queryTokenSet))
}

func tokenizePath(path string) []string {
	path = filepath.ToSlash(strings.TrimPrefix(path, "/"))

	var tokens []string
	for _, part := range strings.Split(path, "/") {
		for _, sp := range strings.Split(part, ".") {
			for _, token := range strings.FieldsFunc(sp, func(r rune) bool {
				return r == '_' || r == '-'
			}) {
				token = strings.ToLower(token)
				if len(token) >= 2 {
					tokens = append(tokens, token)
				}
			}
		}
	}
	return tokens
}
