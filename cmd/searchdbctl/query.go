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
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"devops/searchdb"
	"devops/searchdb/corpus"
)

func newQueryCmd() *cobra.Command {
	var dir, query, mode string
	var bm25K, knnK int

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Ingest a corpus directory then run a single query against it",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Corpus.Dir = dir
			}
			if bm25K > 0 {
				cfg.Query.BM25K = bm25K
			}
			if knnK > 0 {
				cfg.Query.KNNK = knnK
			}

			text := query
			for _, a := range args {
				if text != "" {
					text += " "
				}
				text += a
			}
			if text == "" {
				return fmt.Errorf("query text required: pass it as an argument or with --q")
			}

			idx := searchdb.New()
			loader := &corpus.Loader{Index: idx, Embed: hashEmbed(embedDim), Parallel: cfg.Corpus.Parallel}
			if _, err := loader.LoadDir(context.Background(), cfg.Corpus.Dir, corpus.NewPathID()); err != nil {
				return fmt.Errorf("ingest %s: %w", cfg.Corpus.Dir, err)
			}

			queryVec := hashEmbed(embedDim)(text)

			out := cmd.OutOrStdout()
			switch mode {
			case "bm25":
				printPairs(out, idx.BM25TopK(text, cfg.Query.BM25K))
			case "knn":
				printPairs(out, idx.KNNTopK(queryVec, cfg.Query.KNNK))
			case "union":
				ids := idx.UnionCandidates(text, queryVec, cfg.Query.BM25K, cfg.Query.KNNK)
				for i, id := range ids {
					fmt.Fprintf(out, "%2d. %s\n", i+1, id)
				}
			default:
				return fmt.Errorf("unknown --mode %q, want one of bm25, knn, union", mode)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "corpus directory (overrides config)")
	cmd.Flags().StringVar(&query, "q", "", "query text, alternative to positional arguments")
	cmd.Flags().StringVar(&mode, "mode", "union", "bm25, knn, or union")
	cmd.Flags().IntVar(&bm25K, "bm25-k", 0, "BM25 candidate count (overrides config)")
	cmd.Flags().IntVar(&knnK, "knn-k", 0, "kNN candidate count (overrides config)")
	return cmd
}

func printPairs(w io.Writer, pairs []searchdb.Pair) {
	for i, p := range pairs {
		fmt.Fprintf(w, "%2d. %-24s %.4f\n", i+1, p.ID, p.Score)
	}
}
