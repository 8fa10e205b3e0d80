// Package search provides full-text search over a session's works.
package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/ashureev/chrononote/internal/domain"
)

// DefaultLimit caps results when no limit is given.
const DefaultLimit = 10

// Result is one search hit.
type Result struct {
	Work  domain.WorkItem `json:"work"`
	Score float64         `json:"score"`
}

type indexedWork struct {
	Title  string
	Author string
}

// Works searches title and author of works for query. Matching is fuzzy
// (one edit) and results are ordered by relevance. The index lives in memory
// for the duration of the call.
func Works(works []domain.WorkItem, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.InvalidInputf("search query is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	defer idx.Close()

	batch := idx.NewBatch()
	for _, w := range works {
		doc := indexedWork{Title: w.Title}
		if w.AuthorOrSource != nil {
			doc.Author = *w.AuthorOrSource
		}
		if err := batch.Index(w.ID, doc); err != nil {
			return nil, fmt.Errorf("index work %s: %w", w.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("index works: %w", err)
	}

	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("Title")
	titleQuery.SetFuzziness(1)
	titleQuery.SetBoost(3)
	authorQuery := bleve.NewMatchQuery(query)
	authorQuery.SetField("Author")
	authorQuery.SetFuzziness(1)

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(titleQuery, authorQuery), limit, 0, false)
	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search works: %w", err)
	}

	byID := domain.Index(works)
	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		i, ok := byID[hit.ID]
		if !ok {
			continue
		}
		results = append(results, Result{Work: works[i], Score: hit.Score})
	}
	return results, nil
}

// buildIndexMapping analyzes titles with the English analyzer for stemming.
func buildIndexMapping() mapping.IndexMapping {
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = "en"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Title", titleFieldMapping)
	docMapping.AddFieldMappingsAt("Author", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
