package port

import "mdrun/internal/domain"

type BlockExtractor interface {
	Extract(doc domain.Document, content string) []domain.Block
}
