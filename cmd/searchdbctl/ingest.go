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

	"github.com/spf13/cobra"

	"devops/searchdb"
	"devops/searchdb/corpus"
)

const embedDim = 256

func newIngestCmd() *cobra.Command {
	var dir string
	var parallel int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load a corpus directory into a fresh index and report document counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Corpus.Dir = dir
			}
			if parallel > 0 {
				cfg.Corpus.Parallel = parallel
			}

			idx := searchdb.New()
			loader := &corpus.Loader{
				Index:    idx,
				Embed:    hashEmbed(embedDim),
				Parallel: cfg.Corpus.Parallel,
			}
			n, err := loader.LoadDir(context.Background(), cfg.Corpus.Dir, corpus.NewPathID())
			if err != nil {
				return fmt.Errorf("ingest %s: %w", cfg.Corpus.Dir, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d document(s) from %s\n", n, cfg.Corpus.Dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "corpus directory (overrides config)")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent file reads (overrides config)")
	return cmd
}
