// Package memory provides an in-process vector store for local use.
// It scores with a bag-of-words cosine instead of embeddings, so it needs
// no external service.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

type entry struct {
	record driven.VectorRecord
	terms  map[string]float64
	norm   float64
}

// Store is an in-memory implementation of driven.VectorStore.
type Store struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]entry
}

// New creates an empty store.
func New() *Store {
	return &Store{namespaces: make(map[string]map[string]entry)}
}

// Upsert stores records, replacing equal ids.
func (s *Store) Upsert(_ context.Context, namespace string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]entry)
		s.namespaces[namespace] = ns
	}
	for _, r := range records {
		terms := termFrequencies(r.Data)
		rec := r
		if r.Metadata != nil {
			md := *r.Metadata
			rec.Metadata = &md
		}
		ns[r.ID] = entry{record: rec, terms: terms, norm: norm(terms)}
	}
	return nil
}

// Query ranks the namespace by cosine similarity to the query text.
// Records sharing no term with the query are not returned.
func (s *Store) Query(_ context.Context, namespace string, q driven.VectorQuery) ([]driven.VectorMatch, error) {
	query := termFrequencies(q.Data)
	qnorm := norm(query)
	if qnorm == 0 || q.TopK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []driven.VectorMatch
	for id, e := range s.namespaces[namespace] {
		if e.norm == 0 {
			continue
		}
		var dot float64
		for term, w := range query {
			dot += w * e.terms[term]
		}
		if dot == 0 {
			continue
		}
		m := driven.VectorMatch{ID: id, Score: dot / (qnorm * e.norm)}
		if q.IncludeData {
			m.Data = e.record.Data
		}
		if q.IncludeMetadata {
			m.Metadata = e.record.Metadata
		}
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > q.TopK {
		matches = matches[:q.TopK]
	}
	return matches, nil
}

// Fetch returns records by id, nil for ids not in the namespace.
func (s *Store) Fetch(
	_ context.Context, namespace string, ids []string, opts driven.FetchOptions,
) ([]*driven.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*driven.VectorRecord, len(ids))
	for i, id := range ids {
		e, ok := s.namespaces[namespace][id]
		if !ok {
			continue
		}
		rec := &driven.VectorRecord{ID: id}
		if opts.IncludeData {
			rec.Data = e.record.Data
		}
		if opts.IncludeMetadata {
			rec.Metadata = e.record.Metadata
		}
		out[i] = rec
	}
	return out, nil
}

// Len returns the number of records in a namespace.
func (s *Store) Len(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace])
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func termFrequencies(text string) map[string]float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make(map[string]float64, len(words))
	for _, w := range words {
		terms[w]++
	}
	return terms
}

func norm(terms map[string]float64) float64 {
	var sum float64
	for _, w := range terms {
		sum += w * w
	}
	return math.Sqrt(sum)
}
