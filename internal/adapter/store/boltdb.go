package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"mdrun/internal/domain"
)

var (
	bucketDocs      = []byte("docs")
	bucketBlocks    = []byte("blocks")
	bucketBlobs     = []byte("blobs")
	bucketDocBlocks = []byte("doc_blocks")
	bucketRuns      = []byte("runs")
	bucketStats     = []byte("stats")
	keyStats        = []byte("corpus_stats")
)

var allBuckets = [][]byte{bucketDocs, bucketBlocks, bucketBlobs, bucketDocBlocks, bucketRuns, bucketStats}

type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type docMeta struct {
	Path    string `json:"path"`
	ModTime int64  `json:"mod_time"`
}

type blockMeta struct {
	DocID       string `json:"doc_id"`
	Path        string `json:"path"`
	Index       int    `json:"index"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	LanguageTag string `json:"language"`
	Indent      string `json:"indent,omitempty"`
}

func (s *BoltStore) ListDocs() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, domain.Document{
				ID:      string(k),
				Path:    meta.Path,
				ModTime: time.Unix(meta.ModTime, 0),
			})
			return nil
		})
	})
	return docs, err
}

func (s *BoltStore) GetDoc(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document not found: %s", id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = domain.Document{
			ID:      id,
			Path:    meta.Path,
			ModTime: time.Unix(meta.ModTime, 0),
		}
		return nil
	})
	return doc, err
}

func (s *BoltStore) PutDocBlocks(doc domain.Document, blocks []domain.Block) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteDocTx(tx, doc.ID); err != nil {
			return err
		}

		data, err := json.Marshal(docMeta{Path: doc.Path, ModTime: doc.ModTime.Unix()})
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketDocs).Put([]byte(doc.ID), data); err != nil {
			return err
		}

		blockBucket := tx.Bucket(bucketBlocks)
		blobBucket := tx.Bucket(bucketBlobs)
		ids := make([]string, 0, len(blocks))
		for _, b := range blocks {
			meta := blockMeta{
				DocID:       doc.ID,
				Path:        b.Path,
				Index:       b.Index,
				StartLine:   b.StartLine,
				EndLine:     b.EndLine,
				LanguageTag: b.LanguageTag,
				Indent:      b.Indent,
			}
			data, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := blockBucket.Put([]byte(b.ID), data); err != nil {
				return err
			}
			if err := blobBucket.Put([]byte(b.ID), []byte(b.Text)); err != nil {
				return err
			}
			ids = append(ids, b.ID)
		}

		idsData, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocBlocks).Put([]byte(doc.ID), idsData)
	})
}

func (s *BoltStore) DeleteDoc(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteDocTx(tx, id)
	})
}

func deleteDocTx(tx *bbolt.Tx, docID string) error {
	docBlocks := tx.Bucket(bucketDocBlocks)
	if data := docBlocks.Get([]byte(docID)); data != nil {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		blockBucket := tx.Bucket(bucketBlocks)
		blobBucket := tx.Bucket(bucketBlobs)
		for _, id := range ids {
			if err := blockBucket.Delete([]byte(id)); err != nil {
				return err
			}
			if err := blobBucket.Delete([]byte(id)); err != nil {
				return err
			}
		}
		if err := docBlocks.Delete([]byte(docID)); err != nil {
			return err
		}
	}
	return tx.Bucket(bucketDocs).Delete([]byte(docID))
}

func (s *BoltStore) GetBlocksByDoc(docID string) ([]domain.Block, error) {
	var blocks []domain.Block
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocBlocks).Get([]byte(docID))
		if data == nil {
			return nil
		}
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		for _, id := range ids {
			b, ok, err := readBlock(tx, []byte(id))
			if err != nil {
				return err
			}
			if ok {
				blocks = append(blocks, b)
			}
		}
		return nil
	})
	return blocks, err
}

// ListBlocks returns all blocks ordered by path and position.
func (s *BoltStore) ListBlocks() ([]domain.Block, error) {
	docs, err := s.ListDocs()
	if err != nil {
		return nil, err
	}
	sortDocsByPath(docs)

	var blocks []domain.Block
	for _, doc := range docs {
		bs, err := s.GetBlocksByDoc(doc.ID)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, bs...)
	}
	return blocks, nil
}

func sortDocsByPath(docs []domain.Document) {
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Path < docs[j].Path
	})
}

func readBlock(tx *bbolt.Tx, id []byte) (domain.Block, bool, error) {
	data := tx.Bucket(bucketBlocks).Get(id)
	if data == nil {
		return domain.Block{}, false, nil
	}
	var meta blockMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.Block{}, false, err
	}
	text := tx.Bucket(bucketBlobs).Get(id)
	return domain.Block{
		ID:          string(id),
		DocID:       meta.DocID,
		Path:        meta.Path,
		Index:       meta.Index,
		StartLine:   meta.StartLine,
		EndLine:     meta.EndLine,
		LanguageTag: meta.LanguageTag,
		Indent:      meta.Indent,
		Text:        string(text),
	}, true, nil
}

func (s *BoltStore) GetStats() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketStats).Get(keyStats)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &stats)
	})
	return stats, err
}

func (s *BoltStore) UpdateStats(stats domain.Stats) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketStats).Put(keyStats, data)
	})
}

// runKey orders runs by start time; the id keeps keys unique.
func runKey(rec domain.RunRecord) []byte {
	return []byte(fmt.Sprintf("%020d-%s", rec.StartedAt.UnixNano(), rec.ID))
}

func (s *BoltStore) AddRun(rec domain.RunRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketRuns).Put(runKey(rec), data)
	})
}

func (s *BoltStore) RecentRuns(limit int) ([]domain.RunRecord, error) {
	var runs []domain.RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var rec domain.RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			runs = append(runs, rec)
		}
		return nil
	})
	return runs, err
}

func (s *BoltStore) PruneRuns(keep int) error {
	if keep <= 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		var stale [][]byte
		c := b.Cursor()
		n := 0
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			n++
			if n > keep {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
