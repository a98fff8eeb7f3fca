package port

import "mdrun/internal/domain"

// BlockStore persists the fenced blocks found in indexed documents.
type BlockStore interface {
	ListDocs() ([]domain.Document, error)

	// PutDocBlocks replaces the document and all of its blocks.
	PutDocBlocks(doc domain.Document, blocks []domain.Block) error

	DeleteDoc(id string) error

	GetBlocksByDoc(docID string) ([]domain.Block, error)

	ListBlocks() ([]domain.Block, error)

	GetStats() (domain.Stats, error)

	UpdateStats(stats domain.Stats) error
}

// HistoryStore records snippet runs.
type HistoryStore interface {
	AddRun(rec domain.RunRecord) error

	// RecentRuns returns up to limit records, newest first. limit <= 0
	// returns all of them.
	RecentRuns(limit int) ([]domain.RunRecord, error)

	// PruneRuns keeps the newest keep records.
	PruneRuns(keep int) error
}
