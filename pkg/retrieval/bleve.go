package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/logger"
)

// KnowledgeDocument is one indexed passage of a bot's knowledge base.
type KnowledgeDocument struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	OriginType string `json:"origin_type"`
	Location   string `json:"location"`
}

// BleveSearcher serves retrieval queries from local Bleve indexes, one index
// directory per index id under root.
type BleveSearcher struct {
	root string

	mu      sync.Mutex
	indexes map[string]bleve.Index
}

// NewBleveSearcher creates a searcher storing its indexes under root.
func NewBleveSearcher(root string) (*BleveSearcher, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index root: %w", err)
	}
	return &BleveSearcher{root: root, indexes: make(map[string]bleve.Index)}, nil
}

// Close closes all opened indexes.
func (s *BleveSearcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for id, idx := range s.indexes {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.indexes, id)
	}
	return firstErr
}

func (s *BleveSearcher) open(indexID string) (bleve.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[indexID]; ok {
		return idx, nil
	}
	path := filepath.Join(s.root, indexID)
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open index %s: %w", indexID, err)
		}
		s.indexes[indexID] = idx
		return idx, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", contentField)
	storedField := bleve.NewTextFieldMapping()
	storedField.Index = false
	docMapping.AddFieldMappingsAt("origin_type", storedField)
	docMapping.AddFieldMappingsAt("location", storedField)
	im.DefaultMapping = docMapping

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create index %s: %w", indexID, err)
	}
	s.indexes[indexID] = idx
	return idx, nil
}

// IndexDocuments adds documents to the named index, creating it on first use.
func (s *BleveSearcher) IndexDocuments(indexID string, docs ...KnowledgeDocument) error {
	idx, err := s.open(indexID)
	if err != nil {
		return err
	}
	batch := idx.NewBatch()
	for _, d := range docs {
		if err := batch.Index(d.ID, d); err != nil {
			return fmt.Errorf("failed to index document %s: %w", d.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to commit index batch: %w", err)
	}
	logger.Info("knowledge_documents_indexed", zap.String("index", indexID), zap.Int("count", len(docs)))
	return nil
}

// Search runs the configured query and returns ranked results, most relevant
// first. Index failures surface as ErrUnavailable; retry policy is the
// caller's.
func (s *BleveSearcher) Search(ctx context.Context, q string, cfg Config) ([]SearchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	idx, err := s.open(cfg.IndexID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var bq query.Query
	switch cfg.SearchType {
	case SearchTypeSemantic:
		mq := bleve.NewMatchQuery(q)
		mq.SetField("content")
		bq = mq
	case SearchTypeHybrid:
		// hybrid widens the match with a phrase clause so multi-term
		// queries rank exact passages above bag-of-words hits
		mq := bleve.NewMatchQuery(q)
		mq.SetField("content")
		pq := bleve.NewMatchPhraseQuery(q)
		pq.SetField("content")
		pq.SetBoost(2.0)
		bq = bleve.NewDisjunctionQuery(mq, pq)
	}

	req := bleve.NewSearchRequestOptions(bq, cfg.MaxResults, 0, false)
	req.Fields = []string{"content", "origin_type", "location"}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		logger.Error("retrieval_search_failed", zap.String("index", cfg.IndexID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make([]SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		content, _ := hit.Fields["content"].(string)
		originType, _ := hit.Fields["origin_type"].(string)
		location, _ := hit.Fields["location"].(string)
		name, link, ok := extractSource(originType, location)
		if !ok {
			warnDropped(cfg, originType, location)
			continue
		}
		out = append(out, SearchResult{
			Content:    content,
			SourceName: name,
			SourceLink: link,
			Rank:       len(out),
		})
	}
	logger.Debug("retrieval_search_done", zap.String("index", cfg.IndexID), zap.Int("results", len(out)))
	return out, nil
}
