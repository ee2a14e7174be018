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

// Package vector implements a contiguous, row-major in-memory store of
// unit-normalized embedding vectors with exact brute-force cosine top-k
// search.
package vector

import (
	"math"
	"sort"
)

const initialCapacity = 1024

// Result pairs a document id with its cosine similarity to a query vector.
type Result struct {
	ID    string
	Score float32
}

// Index is a dense vector store keyed by an opaque document id. The zero
// value is not usable; construct with New.
type Index struct {
	dim      int
	data     []float32 // row-major, len >= rows*dim; storage past that is unspecified
	ids      []string
	idToRow  map[string]int
}

// New returns an empty vector index. Its dimensionality is fixed lazily, by
// the length of the first vector passed to Add.
func New() *Index {
	return &Index{idToRow: make(map[string]int)}
}

// Len reports the number of vectors currently stored.
func (idx *Index) Len() int {
	return len(idx.ids)
}

// Add inserts vec under id. The first call to Add with a non-empty vec fixes
// the index's dimension to len(vec); ids added before that hold the zero
// vector. Afterwards every vector is padded with trailing zeros or truncated
// to that dimension. The
// stored copy is normalized to unit L2 length in place; a zero vector is
// left as the zero vector.
func (idx *Index) Add(id string, vec []float32) {
	if idx.dim == 0 && len(vec) > 0 {
		idx.dim = len(vec)
	}
	idx.ensureCapacity(len(idx.ids) + 1)

	row := len(idx.ids)
	idx.ids = append(idx.ids, id)
	idx.idToRow[id] = row
	idx.writeRow(row, vec)
}

// Update overwrites the vector stored for id, applying the same
// padding/truncation and normalization rules as Add. If id is not present,
// Update delegates to Add.
func (idx *Index) Update(id string, vec []float32) {
	row, ok := idx.idToRow[id]
	if !ok {
		idx.Add(id, vec)
		return
	}
	idx.writeRow(row, vec)
}

// Remove deletes id via swap-and-pop: the last row is moved into the
// victim's slot so removal never shifts any other row besides the one
// that previously occupied the last position. It is a no-op if id is
// absent.
func (idx *Index) Remove(id string) {
	row, ok := idx.idToRow[id]
	if !ok {
		return
	}
	last := len(idx.ids) - 1
	if row != last {
		movedID := idx.ids[last]
		idx.ids[row] = movedID
		idx.idToRow[movedID] = row
		copy(idx.rowSlice(row), idx.rowSlice(last))
	}
	idx.ids = idx.ids[:last]
	delete(idx.idToRow, id)
}

// TopK pads or truncates query to the index's dimension, normalizes it, and
// returns up to k ids sorted by descending cosine similarity. Since every
// stored row and the query are unit-normalized, cosine similarity equals
// their inner product. TopK returns an empty slice if k is 0 or the index
// is empty.
func (idx *Index) TopK(query []float32, k int) []Result {
	if k == 0 || len(idx.ids) == 0 {
		return nil
	}

	q := padOrTruncate(query, idx.dim)
	normalize(q)

	// Buffer of up to k candidates, kept sorted ascending by score so
	// position 0 is always the current minimum.
	type candidate struct {
		row   int
		score float32
	}
	buf := make([]candidate, 0, k)

	for row := 0; row < len(idx.ids); row++ {
		dot := dotProduct(idx.rowSlice(row), q)
		if len(buf) < k {
			buf = append(buf, candidate{row, dot})
			sort.Slice(buf, func(i, j int) bool { return buf[i].score < buf[j].score })
			continue
		}
		if dot > buf[0].score {
			buf[0] = candidate{row, dot}
			sort.Slice(buf, func(i, j int) bool { return buf[i].score < buf[j].score })
		}
	}

	out := make([]Result, len(buf))
	for i, c := range buf {
		out[len(buf)-1-i] = Result{ID: idx.ids[c.row], Score: c.score}
	}
	return out
}

func (idx *Index) rowSlice(row int) []float32 {
	off := row * idx.dim
	return idx.data[off : off+idx.dim]
}

func (idx *Index) writeRow(row int, vec []float32) {
	v := padOrTruncate(vec, idx.dim)
	normalize(v)
	copy(idx.rowSlice(row), v)
}

func (idx *Index) ensureCapacity(rows int) {
	need := rows * idx.dim
	if need <= len(idx.data) {
		return
	}
	size := len(idx.data)
	if size == 0 {
		size = initialCapacity
	}
	for size < need {
		size *= 2
	}
	grown := make([]float32, size)
	copy(grown, idx.data)
	idx.data = grown
}

// padOrTruncate returns a vector of exactly dim length: right-padded with
// zeros if v is shorter, truncated if v is longer. The input is never
// mutated.
func padOrTruncate(v []float32, dim int) []float32 {
	out := make([]float32, dim)
	n := len(v)
	if n > dim {
		n = dim
	}
	copy(out, v[:n])
	return out
}

// normalize scales v to unit L2 length in place. A zero vector is left
// unchanged (its norm stays zero, yielding zero similarity to any query).
func normalize(v []float32) {
	var sumSq float32
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq <= 0 {
		return
	}
	inv := 1 / sqrt32(sumSq)
	for i := range v {
		v[i] *= inv
	}
}

// dotProduct computes the inner product of two equal-length vectors using a
// 4-wide partial-sum accumulator with a scalar tail for the remainder. This
// is a throughput hint, not a semantic contract: the result matches the
// plain scalar sum to within floating-point associativity tolerance.
func dotProduct(a, b []float32) float32 {
	d := len(a)
	limit := d - d%4
	var dot float32
	i := 0
	for ; i < limit; i += 4 {
		dot += a[i]*b[i] + a[i+1]*b[i+1] + a[i+2]*b[i+2] + a[i+3]*b[i+3]
	}
	for ; i < d; i++ {
		dot += a[i] * b[i]
	}
	return dot
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
