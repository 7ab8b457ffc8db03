package gitpress

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// PostIndex wraps an in-memory Bleve index over the post list. The index is
// rebuilt whole whenever the post cache reloads; there is no incremental
// update path because the authoritative list is always a single remote fetch
// away.
type PostIndex struct {
	mu  sync.RWMutex
	idx bleve.Index
}

// indexedPost is the document shape fed to the index.
type indexedPost struct {
	Slug     string
	Title    string
	Excerpt  string
	Content  string
	Category string
	Tags     string
}

// SearchHit is one search result.
type SearchHit struct {
	Slug      string              `json:"slug"`
	Title     string              `json:"title"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// NewPostIndex creates an empty in-memory post index.
func NewPostIndex() (*PostIndex, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &PostIndex{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = "en"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Slug", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Title", titleField)
	docMapping.AddFieldMappingsAt("Excerpt", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Content", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Category", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Tags", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Rebuild replaces the index contents with the given posts.
func (i *PostIndex) Rebuild(posts []BlogPost) error {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	batch := idx.NewBatch()
	for _, p := range posts {
		doc := indexedPost{
			Slug:     p.Slug,
			Title:    p.Title,
			Excerpt:  p.Excerpt,
			Content:  p.Content,
			Category: p.Category,
			Tags:     strings.Join(p.Tags, " "),
		}
		if err := batch.Index(p.Slug, doc); err != nil {
			return fmt.Errorf("batch index %s: %w", p.Slug, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	i.mu.Lock()
	old := i.idx
	i.idx = idx
	i.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// Search runs a query-string search (quotes, boolean operators, fuzzy ~) and
// returns up to limit hits with highlighted fragments.
func (i *PostIndex) Search(queryStr string, limit int) ([]SearchHit, error) {
	i.mu.RLock()
	idx := i.idx
	i.mu.RUnlock()

	query := bleve.NewQueryStringQuery(queryStr)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Fields = []string{"Title"}

	results, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]SearchHit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		h := SearchHit{
			Slug:      hit.ID,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		}
		if title, ok := hit.Fields["Title"].(string); ok {
			h.Title = title
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// Count returns the number of indexed posts.
func (i *PostIndex) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.idx.DocCount()
}

// Close releases the index.
func (i *PostIndex) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.idx.Close()
}
