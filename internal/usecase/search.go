package usecase

import (
	"fmt"
	"strings"

	"mdrun/internal/domain"
	"mdrun/internal/port"
)

// SearchUseCase finds indexed blocks by their content.
type SearchUseCase struct {
	store  port.BlockStore
	ranker port.BlockRanker
}

func NewSearchUseCase(store port.BlockStore, ranker port.BlockRanker) *SearchUseCase {
	return &SearchUseCase{store: store, ranker: ranker}
}

// Search returns up to k blocks matching query. A non-empty lang restricts
// the candidates to that language tag.
func (u *SearchUseCase) Search(query, lang string, k int) ([]domain.ScoredBlock, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query")
	}

	blocks, err := u.store.ListBlocks()
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}

	if lang != "" {
		filtered := blocks[:0]
		for _, b := range blocks {
			if b.LanguageTag == lang {
				filtered = append(filtered, b)
			}
		}
		blocks = filtered
	}

	return u.ranker.Rank(query, blocks, k), nil
}
