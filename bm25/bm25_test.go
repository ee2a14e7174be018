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

package bm25

import "testing"

func idsOf(results []Result) map[string]float64 {
	m := make(map[string]float64, len(results))
	for _, r := range results {
		m[r.ID] = r.Score
	}
	return m
}

func TestBasics(t *testing.T) {
	idx := New()
	idx.Add("d1", "the quick brown fox")
	idx.Add("d2", "quick brown dogs")
	idx.Add("d3", "lazy cats")

	got := idx.TopK("quick brown", 3)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2: %+v", len(got), got)
	}
	scores := idsOf(got)
	if _, ok := scores["d1"]; !ok {
		t.Errorf("expected d1 in results: %+v", got)
	}
	if _, ok := scores["d2"]; !ok {
		t.Errorf("expected d2 in results: %+v", got)
	}
	if _, ok := scores["d3"]; ok {
		t.Errorf("expected d3 absent: %+v", got)
	}
	if scores["d2"] <= scores["d1"] {
		t.Errorf("expected d2 (shorter doc) to outscore d1: d1=%v d2=%v", scores["d1"], scores["d2"])
	}
}

func TestRemoveConsistency(t *testing.T) {
	idx := New()
	idx.Add("d1", "the quick brown fox")
	idx.Add("d2", "quick brown dogs")
	idx.Add("d3", "lazy cats")
	idx.Remove("d2")

	got := idx.TopK("quick", 5)
	if len(got) != 1 || got[0].ID != "d1" {
		t.Fatalf("got = %+v, want only d1", got)
	}
	if post := idx.postings["quick"]; len(post) != 1 {
		t.Errorf("postings[quick] = %+v, want exactly {d1: _}", post)
	}
	if idx.totalLen != 4+2 {
		t.Errorf("totalLen = %d, want 6", idx.totalLen)
	}
}

func TestUpdateViaRemoveThenAddReplacesPostings(t *testing.T) {
	idx := New()
	idx.Add("d1", "alpha beta")
	idx.Remove("d1")
	idx.Add("d1", "gamma")

	if got := idx.TopK("alpha", 5); len(got) != 0 {
		t.Errorf("TopK(alpha) = %+v, want empty", got)
	}
	got := idx.TopK("gamma", 5)
	if len(got) != 1 || got[0].ID != "d1" {
		t.Errorf("TopK(gamma) = %+v, want [d1]", got)
	}
}

func TestIdempotentRemove(t *testing.T) {
	idx := New()
	idx.Add("d1", "alpha beta")
	idx.Remove("d1")
	idx.Remove("d1") // must be a no-op, same effect as calling once

	if idx.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", idx.Len())
	}
	if len(idx.postings) != 0 {
		t.Errorf("postings = %+v, want empty", idx.postings)
	}
	if idx.totalLen != 0 {
		t.Errorf("totalLen = %d, want 0", idx.totalLen)
	}
}

func TestEmptyTextIsNoop(t *testing.T) {
	idx := New()
	idx.Add("d1", "   ,.;  ")
	if idx.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for empty tokenization", idx.Len())
	}
}

func TestTopKZeroKOrEmptyIndex(t *testing.T) {
	idx := New()
	idx.Add("d1", "alpha")
	if got := idx.TopK("alpha", 0); len(got) != 0 {
		t.Errorf("TopK(k=0) = %+v, want empty", got)
	}

	empty := New()
	if got := empty.TopK("alpha", 5); len(got) != 0 {
		t.Errorf("TopK on empty index = %+v, want empty", got)
	}
}

func TestTopKNoMatchingTerms(t *testing.T) {
	idx := New()
	idx.Add("d1", "alpha beta")
	if got := idx.TopK("zzz", 5); len(got) != 0 {
		t.Errorf("TopK(zzz) = %+v, want empty", got)
	}
}

func TestRankingMonotonicity(t *testing.T) {
	idx := New()
	idx.Add("d1", "quick brown fox runs")
	idx.Add("d2", "quick brown fox jumps high")

	before := idsOf(idx.TopK("quick", 5))

	// Adding a document with no occurrence of "quick" must not change the
	// relative ordering of d1 and d2.
	idx.Add("d3", "lazy cats sleep all day long")

	after := idsOf(idx.TopK("quick", 5))
	if (before["d1"] > before["d2"]) != (after["d1"] > after["d2"]) {
		t.Errorf("relative order of d1/d2 changed: before=%+v after=%+v", before, after)
	}
}

func TestPostingListNeverEmpty(t *testing.T) {
	idx := New()
	idx.Add("d1", "alpha")
	idx.Add("d2", "alpha beta")
	idx.Remove("d1")
	idx.Remove("d2")

	for term, post := range idx.postings {
		if len(post) == 0 {
			t.Errorf("term %q has an empty posting list, want it removed from the vocabulary", term)
		}
	}
}

func TestTotalLenInvariant(t *testing.T) {
	idx := New()
	idx.Add("d1", "a b c")
	idx.Add("d2", "d e")
	idx.Remove("d1")
	idx.Add("d3", "f g h i")

	var sum int64
	for _, l := range idx.docLen {
		sum += int64(l)
	}
	if sum != idx.totalLen {
		t.Errorf("totalLen = %d, want sum of doc_len = %d", idx.totalLen, sum)
	}
}
