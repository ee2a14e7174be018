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

// Package bm25 implements an incrementally maintained BM25 inverted index.
//
// k1 and b are fixed at 1.5 and 0.75 and are not configurable, matching the
// hyperparameters spec.md pins for this index.
package bm25

import (
	"math"
	"sort"

	"devops/searchdb/tokenize"
)

const (
	k1 = 1.5
	b  = 0.75
)

// Result pairs a document id with its BM25 score.
type Result struct {
	ID    string
	Score float64
}

// Index is a BM25 inverted index over a mutable set of documents, keyed by an
// opaque document id. The zero value is not usable; construct with New.
type Index struct {
	postings  map[string]map[string]int // term -> (docID -> term frequency)
	docLen    map[string]int            // docID -> token count
	docTerms  map[string][]string       // docID -> distinct terms that occurred
	docs      map[string]struct{}
	totalLen  int64
}

// New returns an empty BM25 index.
func New() *Index {
	return &Index{
		postings: make(map[string]map[string]int),
		docLen:   make(map[string]int),
		docTerms: make(map[string][]string),
		docs:     make(map[string]struct{}),
	}
}

// Add tokenizes text and indexes it under id. An empty tokenization is a
// no-op: the document is not recorded. Re-adding an id that is already
// present overwrites postings term-by-term, but stale postings for terms
// that no longer occur are not cleared — callers that want clean semantics
// on replacement should Remove then Add (or use searchdb.UpdateDoc, which
// does exactly that).
func (idx *Index) Add(id, text string) {
	terms := tokenize.Terms(text)
	if len(terms) == 0 {
		return
	}

	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}

	uniq := make([]string, 0, len(tf))
	for term, count := range tf {
		uniq = append(uniq, term)
		post, ok := idx.postings[term]
		if !ok {
			post = make(map[string]int)
			idx.postings[term] = post
		}
		post[id] = count
	}

	// total_len is incremented unconditionally, even when id is already
	// present: re-adding an existing id is a documented caller hazard (see
	// spec's open questions) and this index does not special-case it.
	idx.totalLen += int64(len(terms))
	idx.docLen[id] = len(terms)
	idx.docTerms[id] = uniq
	idx.docs[id] = struct{}{}
}

// Remove deletes id from the index. It is a no-op if id is absent. Calling
// Remove twice for the same id has the same effect as calling it once.
func (idx *Index) Remove(id string) {
	if _, ok := idx.docs[id]; !ok {
		return
	}
	for _, term := range idx.docTerms[id] {
		post := idx.postings[term]
		delete(post, id)
		if len(post) == 0 {
			delete(idx.postings, term)
		}
	}
	idx.totalLen -= int64(idx.docLen[id])
	if idx.totalLen < 0 {
		idx.totalLen = 0
	}
	delete(idx.docLen, id)
	delete(idx.docTerms, id)
	delete(idx.docs, id)
}

// Len reports the number of documents currently indexed.
func (idx *Index) Len() int {
	return len(idx.docs)
}

// TopK tokenizes query, deduplicates its terms (preserving first-occurrence
// order), and scores every document matching at least one of them using the
// Lucene-style smoothed-IDF BM25 formula. It returns at most k results sorted
// by descending score; ties are broken arbitrarily. TopK returns an empty
// slice if k is 0 or the index has no documents.
func (idx *Index) TopK(query string, k int) []Result {
	if k == 0 || len(idx.docs) == 0 {
		return nil
	}

	q := dedup(tokenize.Terms(query))
	if len(q) == 0 {
		return nil
	}

	n := float64(len(idx.docs))
	if n < 1 {
		n = 1
	}
	var avgdl float64
	if idx.totalLen > 0 {
		avgdl = float64(idx.totalLen) / n
	} else {
		avgdl = 0.0001
	}

	scores := make(map[string]float64)
	base := make(map[string]float64)

	for _, term := range q {
		post, ok := idx.postings[term]
		if !ok {
			continue
		}
		df := float64(len(post))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		mult := idf * (k1 + 1)

		for docID, tf := range post {
			bv, ok := base[docID]
			if !ok {
				dl := float64(idx.docLen[docID])
				bv = k1 * (1 - b + b*dl/avgdl)
				base[docID] = bv
			}
			denom := float64(tf) + bv
			if denom == 0 {
				denom = 1e-9
			}
			scores[docID] += mult * float64(tf) / denom
		}
	}

	results := make([]Result, 0, len(scores))
	for id, score := range scores {
		results = append(results, Result{ID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func dedup(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
