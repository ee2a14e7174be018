// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package searchdb composes a BM25 lexical index and a cosine-similarity
// vector index over the same document set, keeping them synchronized by
// document id behind a single exclusive lock.
package searchdb

import (
	"sync"

	"devops/searchdb/bm25"
	"devops/searchdb/vector"
)

// Pair is the uniform (id, score) result type returned by every query
// operation, widened to a 64-bit score regardless of which sub-index
// produced it.
type Pair struct {
	ID    string
	Score float64
}

// Index owns one BM25 index and one vector index. All of its methods
// acquire a single exclusive mutex for their full duration, so every
// operation observes a consistent snapshot of both sub-indexes and every
// mutation is atomic with respect to concurrent callers. It is safe for
// concurrent use.
type Index struct {
	mu    sync.Mutex
	lexer *bm25.Index
	vecs  *vector.Index
}

// New returns an empty, ready-to-use Index.
func New() *Index {
	return &Index{
		lexer: bm25.New(),
		vecs:  vector.New(),
	}
}

// AddDoc indexes id under both the BM25 and vector sub-indexes in the same
// critical section. If bm25Text tokenizes to nothing, the BM25 side
// silently does not record id — this asymmetry is inherent to the
// underlying bm25.Index and is not papered over here (see spec §3, §7).
//
// Re-adding an id that AddDoc already recorded on the BM25 side repeats
// bm25.Index.Add's documented hazard (stale postings for vanished terms);
// use UpdateDoc to replace a document cleanly.
func (s *Index) AddDoc(id, bm25Text string, embedding []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lexer.Add(id, bm25Text)
	s.vecs.Add(id, embedding)
}

// UpdateDoc replaces id's document. On the BM25 side this is a Remove
// followed by an Add, so stale postings for terms that no longer occur in
// bm25Text cannot linger — unlike a second call to AddDoc. On the vector
// side it overwrites the existing row in place, or adds a new one if id was
// not previously known.
func (s *Index) UpdateDoc(id, bm25Text string, embedding []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lexer.Remove(id)
	s.lexer.Add(id, bm25Text)
	s.vecs.Update(id, embedding)
}

// RemoveDoc deletes id from both sub-indexes. It is silent if id is absent
// from one or both.
func (s *Index) RemoveDoc(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lexer.Remove(id)
	s.vecs.Remove(id)
}

// Len returns the number of documents recorded in the BM25 sub-index. The
// vector sub-index may hold more ids when AddDoc was called with a bm25Text
// that tokenizes to nothing (see the asymmetry note on AddDoc); an empty
// embedding is still recorded there, as a zero vector.
func (s *Index) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lexer.Len()
}

// BM25TopK runs a lexical query against the BM25 sub-index. See
// bm25.Index.TopK for the scoring and selection rules.
func (s *Index) BM25TopK(query string, k int) []Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := s.lexer.TopK(query, k)
	out := make([]Pair, len(results))
	for i, r := range results {
		out[i] = Pair{ID: r.ID, Score: r.Score}
	}
	return out
}

// KNNTopK runs a cosine-similarity query against the vector sub-index. See
// vector.Index.TopK for the normalization and selection rules.
func (s *Index) KNNTopK(queryVec []float32, k int) []Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := s.vecs.TopK(queryVec, k)
	out := make([]Pair, len(results))
	for i, r := range results {
		out[i] = Pair{ID: r.ID, Score: float64(r.Score)}
	}
	return out
}

// UnionCandidates runs both a BM25 top-k and a kNN top-k query and returns
// the union of their ids, BM25 ids first, each id emitted only on its first
// occurrence. Scores are discarded.
func (s *Index) UnionCandidates(query string, queryVec []float32, bm25K, knnK int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	bmResults := s.lexer.TopK(query, bm25K)
	knnResults := s.vecs.TopK(queryVec, knnK)

	seen := make(map[string]struct{}, len(bmResults)+len(knnResults))
	out := make([]string, 0, len(bmResults)+len(knnResults))
	for _, r := range bmResults {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r.ID)
	}
	for _, r := range knnResults {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r.ID)
	}
	return out
}
