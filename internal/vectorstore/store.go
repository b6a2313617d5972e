// Package vectorstore implements semantic nearest-neighbor retrieval over
// table schemas. Vectors are kept in a flat index searched by exact Euclidean
// distance; at the scale of a database's table count a brute-force scan is
// both exact and fast enough that no approximate structure is warranted.
package vectorstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/Alice344/MedSQLAgent/internal/embedding"
	"github.com/Alice344/MedSQLAgent/internal/errors"
	"github.com/Alice344/MedSQLAgent/internal/logging"
	"github.com/Alice344/MedSQLAgent/internal/schema"
)

// SchemaRecord is one indexed table: the schema snapshot, its canonical
// formatted text, and (implicitly, by position) its embedding vector.
type SchemaRecord struct {
	TableName  string             `json:"table_name"`
	Schema     schema.TableSchema `json:"schema"`
	SchemaText string             `json:"schema_text"`
}

// SearchResult pairs a record with its similarity score
type SearchResult struct {
	Record SchemaRecord
	Score  float64
}

// Store holds one embedding vector and metadata record per indexed table.
// Vector i always corresponds to record i; persistence and load enforce that
// invariant. Mutations take the write lock so readers only ever observe a
// fully-populated state.
type Store struct {
	mu       sync.RWMutex
	path     string
	embedder *embedding.Manager
	logger   *logging.Logger

	records []SchemaRecord
	vectors [][]float32
}

// NewStore creates a schema store rooted at the given directory and loads any
// previously persisted state. A record/vector count mismatch on disk is
// treated as corruption and refuses to load.
func NewStore(path string, embedder *embedding.Manager) (*Store, error) {
	s := &Store{
		path:     path,
		embedder: embedder,
		logger:   logging.GetLogger().WithField("component", "vectorstore"),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// AddSchemas formats, embeds, and indexes every schema in the mapping.
// Calls are cumulative: records append to the existing index, and duplicate
// table names are appended rather than deduplicated. Callers refreshing the
// index are expected to Clear first.
func (s *Store) AddSchemas(ctx context.Context, schemas map[string]schema.TableSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Sorted iteration keeps insertion order reproducible across refreshes.
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}

	sort.Strings(names)

	if !s.embedder.IsEnabled() {
		// Degraded mode: no embedding backend. Records are kept without
		// vectors and searched by substring containment. State stays in
		// memory only so a later embedding-backed index is not poisoned
		// with vectorless records.
		s.logger.Warn("embedding provider unavailable, storing schemas for substring search only")

		for _, name := range names {
			s.records = append(s.records, SchemaRecord{
				TableName:  name,
				Schema:     schemas[name],
				SchemaText: schema.Format(schemas[name]),
			})
		}

		return nil
	}

	newRecords := make([]SchemaRecord, 0, len(names))
	newVectors := make([][]float32, 0, len(names))

	for _, name := range names {
		text := schema.Format(schemas[name])

		vector, err := s.embedder.GenerateEmbedding(ctx, text)
		if err != nil {
			return errors.Wrapf(err, errors.ErrTypeEmbedding,
				"failed to embed schema for table %s", name)
		}

		newRecords = append(newRecords, SchemaRecord{
			TableName:  name,
			Schema:     schemas[name],
			SchemaText: text,
		})
		newVectors = append(newVectors, vector)
	}

	// Commit to memory only once the new state is on disk, so a failed save
	// leaves readers on the last fully-persisted state.
	prevRecords, prevVectors := s.records, s.vectors

	s.records = append(s.records, newRecords...)
	s.vectors = append(s.vectors, newVectors...)

	if err := s.save(); err != nil {
		s.records, s.vectors = prevRecords, prevVectors
		return err
	}

	return nil
}

// Search returns the topK records most relevant to the query, best first.
// With an embedding backend the ranking is by Euclidean distance converted
// to score = 1/(1+distance); ties keep insertion order. Without one, the
// query is matched as a case-insensitive substring of the formatted schema
// text with a constant score of 1.0, in insertion order. An empty index
// returns an empty slice.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 || len(s.records) == 0 {
		return nil, nil
	}

	if !s.embedder.IsEnabled() {
		return s.searchSubstring(query, topK), nil
	}

	queryVector, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "failed to embed search query")
	}

	if topK > len(s.vectors) {
		topK = len(s.vectors)
	}

	type candidate struct {
		index    int
		distance float64
	}

	candidates := make([]candidate, len(s.vectors))
	for i, vector := range s.vectors {
		candidates[i] = candidate{index: i, distance: euclideanDistance(queryVector, vector)}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	results := make([]SearchResult, 0, topK)
	for _, c := range candidates[:topK] {
		results = append(results, SearchResult{
			Record: s.records[c.index],
			Score:  1.0 / (1.0 + c.distance),
		})
	}

	return results, nil
}

// searchSubstring is the degraded-mode search path. Caller holds the read lock.
func (s *Store) searchSubstring(query string, topK int) []SearchResult {
	queryLower := strings.ToLower(query)

	var results []SearchResult

	for _, record := range s.records {
		if strings.Contains(strings.ToLower(record.SchemaText), queryLower) {
			results = append(results, SearchResult{Record: record, Score: 1.0})
			if len(results) == topK {
				break
			}
		}
	}

	return results
}

// GetAllSchemas returns a mapping from table name to schema rebuilt from the
// stored records. For duplicate names the last record wins.
func (s *Store) GetAllSchemas() map[string]schema.TableSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemas := make(map[string]schema.TableSchema, len(s.records))
	for _, record := range s.records {
		schemas[record.TableName] = record.Schema
	}

	return schemas
}

// Count returns the number of stored records
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Clear resets the store to zero records and persists the empty state
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevRecords, prevVectors := s.records, s.vectors

	s.records = nil
	s.vectors = nil

	if err := s.save(); err != nil {
		s.records, s.vectors = prevRecords, prevVectors
		return err
	}

	return nil
}

// euclideanDistance returns the L2 distance between two vectors. Vectors of
// unequal length compare over the shorter prefix; the index only ever holds
// vectors of one dimensionality, so that case indicates a provider change.
func euclideanDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64

	for i := range n {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}

	return math.Sqrt(sum)
}
