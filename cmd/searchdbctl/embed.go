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

package main

import (
	"hash/fnv"

	"devops/searchdb/tokenize"
)

// hashEmbed is a feature-hashing placeholder embedder: it has no notion of
// semantic similarity, only term co-occurrence, and exists so that
// searchdbctl can exercise the vector sub-index without depending on an
// external embedding model. Production callers should supply their own
// corpus.Embedder.
func hashEmbed(dim int) func(text string) []float32 {
	return func(text string) []float32 {
		vec := make([]float32, dim)
		for _, term := range tokenize.Terms(text) {
			h := fnv.New32a()
			h.Write([]byte(term))
			vec[int(h.Sum32())%dim]++
		}
		return vec
	}
}
