// Package retrieval queries a knowledge index and shapes the ranked results
// used to ground model responses.
package retrieval

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/logger"
)

// Search types accepted by Search. Anything else is ErrInvalidConfiguration.
const (
	SearchTypeSemantic = "semantic"
	SearchTypeHybrid   = "hybrid"
)

// Origin types of indexed documents. Results from other origins carry no
// usable source link and are dropped from the result set.
const (
	OriginWeb           = "web"
	OriginObjectStorage = "s3"
)

var (
	// ErrInvalidConfiguration reports an unusable search configuration.
	ErrInvalidConfiguration = errors.New("invalid search configuration")
	// ErrUnavailable reports a transient index/provider failure. Retries
	// are a caller concern; nothing is retried here.
	ErrUnavailable = errors.New("retrieval unavailable")
)

// Config selects the index and search behavior for one retrieval call.
type Config struct {
	SearchType string
	MaxResults int
	IndexID    string
	// WarnDropped logs a warning for each result dropped because its
	// origin type is unrecognized.
	WarnDropped bool
}

// Validate checks the closed search-type enumeration and normalizes limits.
func (c *Config) Validate() error {
	switch c.SearchType {
	case SearchTypeSemantic, SearchTypeHybrid:
	default:
		return ErrInvalidConfiguration
	}
	if c.IndexID == "" {
		return ErrInvalidConfiguration
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 10
	}
	return nil
}

// SearchResult is one ranked retrieval hit. Rank 0 is the most relevant.
type SearchResult struct {
	Content    string `json:"content"`
	SourceName string `json:"source_name"`
	SourceLink string `json:"source_link"`
	Rank       int    `json:"rank"`
}

// Searcher issues a query against a knowledge index.
type Searcher interface {
	Search(ctx context.Context, query string, cfg Config) ([]SearchResult, error)
}

// GroundingBlock is concatenated retrieved content handed to the provider's
// grounding check alongside the model context.
type GroundingBlock struct {
	Text string
}

// ToGroundingBlock concatenates all result contents with a double newline.
// It returns nil for an empty result set: the grounding check is skipped,
// never run against empty context.
func ToGroundingBlock(results []SearchResult) *GroundingBlock {
	if len(results) == 0 {
		return nil
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Content)
	}
	return &GroundingBlock{Text: strings.Join(parts, "\n\n")}
}

// extractSource resolves the human label and link for a document location.
// Web origins use the URL as both; object-storage origins use the last path
// segment as the name and the full URI as the link. Unrecognized origins
// report ok=false and the result is dropped.
func extractSource(originType, location string) (name, link string, ok bool) {
	switch originType {
	case OriginWeb:
		return location, location, true
	case OriginObjectStorage:
		name := location
		if u, err := url.Parse(location); err == nil {
			segs := strings.Split(u.Path, "/")
			if last := segs[len(segs)-1]; last != "" {
				name = last
			}
		}
		return name, location, true
	default:
		return "", "", false
	}
}

func warnDropped(cfg Config, originType, location string) {
	if !cfg.WarnDropped {
		return
	}
	logger.Warn("retrieval_result_dropped",
		zap.String("index", cfg.IndexID),
		zap.String("origin_type", originType),
		zap.String("location", location),
	)
}
