package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

// searchVector ranks a project's embeddings against queryVector by cosine
// similarity. The cgo build pushes the distance computation into SQL via
// sqlite-vec; the purego build scans candidates and ranks them in Go.
func searchVector(ctx context.Context, db querier, projectID int64, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	if limit <= 0 {
		return []VectorResult{}, nil
	}
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, projectID, queryVector, limit, filters)
	}
	return searchVectorFallback(ctx, db, projectID, queryVector, limit, filters)
}

// searchVectorOptimized ranks in SQL. vec_distance_cosine returns distance
// where lower is better; rows carry similarity (1 - distance) instead.
func searchVectorOptimized(ctx context.Context, db querier, projectID int64, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	blob := SerializeVector(queryVector)

	query := `SELECT c.id, 1.0 - vec_distance_cosine(e.vector, ?) AS similarity
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
		INNER JOIN files f ON c.file_id = f.id
		WHERE f.project_id = ?`
	args := []interface{}{blob, projectID}

	clause, clauseArgs := chunkFilterSQL(filters)
	query += clause
	args = append(args, clauseArgs...)

	if filters != nil && filters.MinRelevance > 0 {
		query += " AND (1.0 - vec_distance_cosine(e.vector, ?)) >= ?"
		args = append(args, blob, filters.MinRelevance)
	}

	query += " ORDER BY similarity DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var r VectorResult
		if err := rows.Scan(&r.ChunkID, &r.SimilarityScore); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// searchVectorFallback loads candidate embeddings and ranks them here.
func searchVectorFallback(ctx context.Context, db querier, projectID int64, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	query := `SELECT c.id, e.vector
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
		INNER JOIN files f ON c.file_id = f.id
		WHERE f.project_id = ?`
	args := []interface{}{projectID}

	clause, clauseArgs := chunkFilterSQL(filters)
	query += clause
	args = append(args, clauseArgs...)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorResult, 0, 256)
	for rows.Next() {
		var chunkID int64
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, err
		}

		vector := DeserializeVector(blob)
		if len(vector) != len(queryVector) {
			continue // stale embedding from another model
		}

		similarity := CosineSimilarity(queryVector, vector)
		if filters != nil && filters.MinRelevance > 0 && similarity < filters.MinRelevance {
			continue
		}
		results = append(results, VectorResult{ChunkID: chunkID, SimilarityScore: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// searchText runs a BM25 ranked FTS5 match over the project's chunks.
func searchText(ctx context.Context, db querier, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, fmt.Errorf("empty search query")
	}

	sqlQuery := `SELECT c.id, bm25(chunks_fts) AS score
		FROM chunks_fts
		INNER JOIN chunks c ON chunks_fts.rowid = c.id
		INNER JOIN files f ON c.file_id = f.id
		WHERE chunks_fts MATCH ? AND f.project_id = ?`
	args := []interface{}{sanitized, projectID}

	clause, clauseArgs := chunkFilterSQL(filters)
	sqlQuery += clause
	args = append(args, clauseArgs...)

	// raw BM25 sorts ascending, best match first
	sqlQuery += " ORDER BY score LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]TextResult, 0)
	for rows.Next() {
		var r TextResult
		if err := rows.Scan(&r.ChunkID, &r.BM25Score); err != nil {
			return nil, err
		}
		r.BM25Score = bm25Relevance(r.BM25Score)
		if filters != nil && filters.MinRelevance > 0 && r.BM25Score < filters.MinRelevance {
			continue
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// bm25Relevance maps a raw BM25 score (negative, lower is better) onto a
// positive relevance in (0, 1], treating 50 as the practical magnitude
// ceiling.
func bm25Relevance(raw float64) float64 {
	return 1.0 / (1.0 + math.Abs(raw)/50.0)
}

// chunkFilterSQL renders the WHERE conditions shared by vector and text
// search. The returned clause starts with " AND" or is empty.
func chunkFilterSQL(filters *SearchFilters) (string, []interface{}) {
	if filters == nil {
		return "", nil
	}

	var clause strings.Builder
	var args []interface{}

	appendIn := func(column string, values []string) {
		clause.WriteString(" AND " + column + " IN (")
		for i, v := range values {
			if i > 0 {
				clause.WriteString(",")
			}
			clause.WriteString("?")
			args = append(args, v)
		}
		clause.WriteString(")")
	}

	if len(filters.Languages) > 0 {
		appendIn("f.language", filters.Languages)
	}
	if len(filters.ChunkTypes) > 0 && filters.ChunkTypes[0] != "" {
		appendIn("c.chunk_type", filters.ChunkTypes)
	}
	if filters.FilePattern != "" {
		clause.WriteString(" AND f.file_path GLOB ?")
		args = append(args, filters.FilePattern)
	}
	clause.WriteString(macroFilterSQL(filters.Macros))

	return clause.String(), args
}

// macroConditions maps each recognized framework macro filter onto the
// metadata JSON probe that detects it.
var macroConditions = map[string]string{
	"rails_model":  "json_extract(c.metadata, '$.rails_model') = 1",
	"associations": "json_extract(c.metadata, '$.associations') IS NOT NULL",
	"validations":  "json_extract(c.metadata, '$.validations') IS NOT NULL",
	"callbacks":    "json_extract(c.metadata, '$.callbacks') IS NOT NULL",
	"scopes":       "json_extract(c.metadata, '$.scopes') IS NOT NULL",
}

// macroFilterSQL narrows results to chunks carrying recognized framework
// macro metadata. Unknown macro names are ignored.
func macroFilterSQL(macros []string) string {
	conditions := make([]string, 0, len(macros))
	for _, macro := range macros {
		if cond, ok := macroConditions[macro]; ok {
			conditions = append(conditions, cond)
		}
	}
	if len(conditions) == 0 {
		return ""
	}
	return " AND (" + strings.Join(conditions, " OR ") + ")"
}

// SerializeVector encodes a float32 vector as the little-endian blob stored
// in the embeddings table.
func SerializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// DeserializeVector decodes a blob produced by SerializeVector.
func DeserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched dimensions and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sanitizeFTSQuery rewrites a user query as space-separated quoted FTS5
// strings, one per whitespace token. Inside a quoted string the MATCH
// grammar is inert, so operators, wildcards and parentheses in user input
// cannot change the query structure. Adjacent quoted strings are ANDed.
func sanitizeFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}
