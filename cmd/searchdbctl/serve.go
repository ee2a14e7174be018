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
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"devops/searchdb"
	"devops/searchdb/corpus"
	"devops/searchdb/metrics"
)

func newServeCmd() *cobra.Command {
	var dir string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Ingest a corpus directory, optionally watch it, and serve queries from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Corpus.Dir = dir
			}
			if cmd.Flags().Changed("watch") {
				cfg.Corpus.Watch = watch
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				log.Println("shutting down")
				cancel()
			}()

			idx := searchdb.New()
			ids := corpus.NewPathID()
			loader := &corpus.Loader{Index: idx, Embed: hashEmbed(embedDim), Parallel: cfg.Corpus.Parallel}

			n, err := loader.LoadDir(ctx, cfg.Corpus.Dir, ids)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", cfg.Corpus.Dir, err)
			}
			log.Printf("indexed %d document(s) from %s", n, cfg.Corpus.Dir)

			mgr := metrics.NewManager(metrics.Config{
				Enabled:         cfg.Metrics.Enabled,
				LatencyBuckets:  metrics.DefaultConfig().LatencyBuckets,
				ResultSizeRange: metrics.DefaultConfig().ResultSizeRange,
			})
			if mgr.Enabled() {
				go func() {
					log.Printf("serving metrics on %s/metrics", cfg.Metrics.Addr)
					if err := mgr.Serve(ctx, cfg.Metrics.Addr); err != nil {
						log.Printf("metrics server error: %v", err)
					}
				}()
			}

			if cfg.Corpus.Watch {
				w, err := corpus.NewWatcher(cfg.Corpus.Dir, loader, ids, corpus.WithDebounce(cfg.Corpus.Debounce))
				if err != nil {
					return fmt.Errorf("watch %s: %w", cfg.Corpus.Dir, err)
				}
				go func() {
					if err := w.Watch(ctx); err != nil && ctx.Err() == nil {
						log.Printf("watcher error: %v", err)
					}
				}()
				defer w.Stop()
				log.Printf("watching %s for changes", cfg.Corpus.Dir)
			}

			return serveQueries(ctx, idx, mgr, cfg.Query.BM25K, cfg.Query.KNNK)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "corpus directory (overrides config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "watch the corpus directory for changes")
	return cmd
}

// serveQueries reads queries from stdin, one per line, and prints the union
// of BM25 and kNN candidates until ctx is cancelled or stdin closes.
func serveQueries(ctx context.Context, idx *searchdb.Index, mgr *metrics.Manager, bm25K, knnK int) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			start := time.Now()
			queryVec := hashEmbed(embedDim)(text)
			ids := idx.UnionCandidates(text, queryVec, bm25K, knnK)
			mgr.ObserveQuery("union", time.Since(start), len(ids))
			mgr.SetDocumentsIndexed(idx.Len())
			for i, id := range ids {
				fmt.Printf("%2d. %s\n", i+1, id)
			}
		}
	}
}
