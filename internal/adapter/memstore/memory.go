package memstore

import (
	"fmt"
	"sort"
	"sync"

	"mdrun/internal/domain"
)

// MemoryStore is an in-memory BlockStore and HistoryStore.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]domain.Document
	docBlocks map[string][]domain.Block
	runs      []domain.RunRecord
	stats     domain.Stats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]domain.Document),
		docBlocks: make(map[string][]domain.Block),
	}
}

func (s *MemoryStore) ListDocs() ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *MemoryStore) GetDoc(id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document not found: %s", id)
	}
	return doc, nil
}

func (s *MemoryStore) PutDocBlocks(doc domain.Document, blocks []domain.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	s.docBlocks[doc.ID] = append([]domain.Block(nil), blocks...)
	return nil
}

func (s *MemoryStore) DeleteDoc(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	delete(s.docBlocks, id)
	return nil
}

func (s *MemoryStore) GetBlocksByDoc(docID string) ([]domain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Block(nil), s.docBlocks[docID]...), nil
}

func (s *MemoryStore) ListBlocks() ([]domain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })

	var blocks []domain.Block
	for _, doc := range docs {
		blocks = append(blocks, s.docBlocks[doc.ID]...)
	}
	return blocks, nil
}

func (s *MemoryStore) GetStats() (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}

func (s *MemoryStore) UpdateStats(stats domain.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	return nil
}

func (s *MemoryStore) AddRun(rec domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, rec)
	sort.SliceStable(s.runs, func(i, j int) bool {
		return s.runs[i].StartedAt.Before(s.runs[j].StartedAt)
	})
	return nil
}

func (s *MemoryStore) RecentRuns(limit int) ([]domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RunRecord, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, s.runs[i])
	}
	return out, nil
}

func (s *MemoryStore) PruneRuns(keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep > 0 && len(s.runs) > keep {
		s.runs = append([]domain.RunRecord(nil), s.runs[len(s.runs)-keep:]...)
	}
	return nil
}
