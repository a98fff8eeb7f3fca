package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"mdrun/internal/domain"
	"mdrun/internal/port"
)

// IndexUseCase records the fenced blocks of every markdown file under a root.
type IndexUseCase struct {
	store     port.BlockStore
	walker    port.FileWalker
	reader    port.FileReader
	extractor port.BlockExtractor
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	store port.BlockStore,
	walker port.FileWalker,
	reader port.FileReader,
	extractor port.BlockExtractor,
) *IndexUseCase {
	return &IndexUseCase{
		store:     store,
		walker:    walker,
		reader:    reader,
		extractor: extractor,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	FilesIndexed int
	FilesSkipped int
	FilesDeleted int
	BlocksFound  int
	Errors       []string
}

// ProgressFunc is called after each file with the number processed so far.
type ProgressFunc func(processed, total int, currentFile string)

// Index indexes files in the given directory. Files whose modification time
// has not advanced since the last run are skipped.
func (u *IndexUseCase) Index(root string, progress ProgressFunc) (*IndexResult, error) {
	result := &IndexResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existingDocs, err := u.store.ListDocs()
	if err != nil {
		return nil, fmt.Errorf("failed to list existing docs: %w", err)
	}
	existingMap := make(map[string]domain.Document, len(existingDocs))
	for _, doc := range existingDocs {
		existingMap[doc.Path] = doc
	}

	seenPaths := make(map[string]bool, len(files))

	for i, file := range files {
		seenPaths[file.Path] = true

		if existing, ok := existingMap[file.Path]; ok && existing.ModTime.Unix() >= file.ModTime {
			result.FilesSkipped++
		} else if err := u.indexFile(file); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to index %s: %v", file.Path, err))
		} else {
			result.FilesIndexed++
		}

		if progress != nil {
			progress(i+1, len(files), file.Path)
		}
	}

	for path, doc := range existingMap {
		if seenPaths[path] {
			continue
		}
		if err := u.store.DeleteDoc(doc.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", path, err))
		} else {
			result.FilesDeleted++
		}
	}

	stats, err := u.refreshStats()
	if err != nil {
		return nil, err
	}
	result.BlocksFound = stats.TotalBlocks

	return result, nil
}

// Reindex refreshes the given paths regardless of their modification time.
// Paths that no longer exist are removed from the index.
func (u *IndexUseCase) Reindex(paths []string, stat func(string) (port.FileInfo, error)) (*IndexResult, error) {
	result := &IndexResult{}
	for _, path := range paths {
		info, err := stat(path)
		if err != nil {
			if err := u.store.DeleteDoc(GenerateDocID(path)); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", path, err))
				continue
			}
			result.FilesDeleted++
			continue
		}
		if err := u.indexFile(info); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to index %s: %v", path, err))
			continue
		}
		result.FilesIndexed++
	}

	stats, err := u.refreshStats()
	if err != nil {
		return nil, err
	}
	result.BlocksFound = stats.TotalBlocks
	return result, nil
}

func (u *IndexUseCase) indexFile(file port.FileInfo) error {
	content, err := u.reader.ReadFile(file.Path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	doc := domain.Document{
		ID:      GenerateDocID(file.Path),
		Path:    file.Path,
		ModTime: time.Unix(file.ModTime, 0),
	}

	blocks := u.extractor.Extract(doc, content)
	if err := u.store.PutDocBlocks(doc, blocks); err != nil {
		return fmt.Errorf("failed to store blocks: %w", err)
	}
	return nil
}

func (u *IndexUseCase) refreshStats() (domain.Stats, error) {
	docs, err := u.store.ListDocs()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to list docs: %w", err)
	}
	blocks, err := u.store.ListBlocks()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to list blocks: %w", err)
	}

	stats := domain.Stats{
		TotalDocs:   len(docs),
		TotalBlocks: len(blocks),
		Languages:   make(map[string]int),
	}
	for _, b := range blocks {
		stats.Languages[b.LanguageTag]++
	}
	if err := u.store.UpdateStats(stats); err != nil {
		return domain.Stats{}, fmt.Errorf("failed to update stats: %w", err)
	}
	return stats, nil
}

// GenerateDocID creates a stable ID for a document based on its path.
func GenerateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
