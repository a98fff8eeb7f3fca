package port

import "mdrun/internal/domain"

// BlockRanker orders blocks by relevance to a free text query.
type BlockRanker interface {
	Rank(query string, blocks []domain.Block, k int) []domain.ScoredBlock
}
