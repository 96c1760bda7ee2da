package retrieval

import (
	"context"
	"errors"
	"testing"
)

func newTestSearcher(t *testing.T) *BleveSearcher {
	t.Helper()
	s, err := NewBleveSearcher(t.TempDir())
	if err != nil {
		t.Fatalf("new searcher: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedIndex(t *testing.T, s *BleveSearcher, indexID string) {
	t.Helper()
	err := s.IndexDocuments(indexID,
		KnowledgeDocument{
			ID:         "d1",
			Content:    "refund policy for enterprise customers",
			OriginType: OriginObjectStorage,
			Location:   "s3://kb/policies/refunds.pdf",
		},
		KnowledgeDocument{
			ID:         "d2",
			Content:    "shipping times and carrier options",
			OriginType: OriginWeb,
			Location:   "https://example.com/shipping",
		},
		KnowledgeDocument{
			ID:         "d3",
			Content:    "refund exceptions and escalation path",
			OriginType: "sharepoint",
			Location:   "https://corp.example/exceptions",
		},
	)
	if err != nil {
		t.Fatalf("index documents: %v", err)
	}
}

func TestSearchSemantic(t *testing.T) {
	s := newTestSearcher(t)
	seedIndex(t, s, "kb")

	results, err := s.Search(context.Background(), "refund policy", Config{
		SearchType: SearchTypeSemantic,
		IndexID:    "kb",
		MaxResults: 10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("no results for a known term")
	}
	for i, r := range results {
		if r.Rank != i {
			t.Fatalf("results[%d].Rank = %d", i, r.Rank)
		}
		if r.SourceLink == "" || r.SourceName == "" {
			t.Fatalf("results[%d] missing source fields: %+v", i, r)
		}
	}
	// d3 matches "refund" but has no recognized origin
	for _, r := range results {
		if r.SourceLink == "https://corp.example/exceptions" {
			t.Fatalf("dropped origin leaked into results: %+v", r)
		}
	}
}

func TestSearchHybrid(t *testing.T) {
	s := newTestSearcher(t)
	seedIndex(t, s, "kb")

	results, err := s.Search(context.Background(), "shipping times", Config{
		SearchType: SearchTypeHybrid,
		IndexID:    "kb",
		MaxResults: 10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("no results for a known phrase")
	}
	if results[0].SourceLink != "https://example.com/shipping" {
		t.Fatalf("top hit = %+v, want the shipping page", results[0])
	}
}

func TestSearchSourceExtraction(t *testing.T) {
	s := newTestSearcher(t)
	seedIndex(t, s, "kb")

	results, err := s.Search(context.Background(), "enterprise refund", Config{
		SearchType: SearchTypeSemantic,
		IndexID:    "kb",
		MaxResults: 10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var found bool
	for _, r := range results {
		if r.SourceLink == "s3://kb/policies/refunds.pdf" {
			found = true
			if r.SourceName != "refunds.pdf" {
				t.Fatalf("s3 source name = %q, want refunds.pdf", r.SourceName)
			}
		}
	}
	if !found {
		t.Fatalf("s3 document not in results: %+v", results)
	}
}

func TestSearchMaxResults(t *testing.T) {
	s := newTestSearcher(t)
	docs := make([]KnowledgeDocument, 0, 8)
	for i := 0; i < 8; i++ {
		docs = append(docs, KnowledgeDocument{
			ID:         string(rune('a' + i)),
			Content:    "warranty coverage details",
			OriginType: OriginWeb,
			Location:   "https://example.com/warranty",
		})
	}
	if err := s.IndexDocuments("kb", docs...); err != nil {
		t.Fatalf("index documents: %v", err)
	}

	results, err := s.Search(context.Background(), "warranty", Config{
		SearchType: SearchTypeSemantic,
		IndexID:    "kb",
		MaxResults: 3,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) > 3 {
		t.Fatalf("len = %d, want at most 3", len(results))
	}
}

func TestSearchInvalidConfig(t *testing.T) {
	s := newTestSearcher(t)
	_, err := s.Search(context.Background(), "anything", Config{SearchType: "vector", IndexID: "kb"})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	s := newTestSearcher(t)
	results, err := s.Search(context.Background(), "anything", Config{
		SearchType: SearchTypeSemantic,
		IndexID:    "fresh",
	})
	if err != nil {
		t.Fatalf("search on fresh index: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %+v, want none", results)
	}
}
