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

// Package corpus ingests a directory of text files into a searchdb.Index,
// the host-application plumbing that spec.md treats as external to the
// core (a caller that tokenizes/embeds documents and calls AddDoc/UpdateDoc/
// RemoveDoc).
package corpus

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"devops/searchdb"
)

// idPrefix marks an optional first line of a corpus file that pins its
// document id explicitly, e.g. "id: release-notes-v2".
const idPrefix = "id:"

// Embedder turns document text into an embedding vector. It is supplied by
// the host application; the core knows nothing about how embeddings are
// produced (spec.md explicitly excludes learned representations from its
// scope). A nil Embedder causes every ingested document to be added with a
// zero-length (zero) vector, which AddDoc still accepts.
type Embedder func(text string) []float32

// Loader reads files from a corpus directory and indexes them.
type Loader struct {
	Index    *searchdb.Index
	Embed    Embedder
	Parallel int // max concurrent file reads; defaults to 8 if <= 0
}

// PathID maps a file path to the document id it was last indexed under, so
// that later re-ingestion (LoadDir again, or a Watcher event) can call
// UpdateDoc/RemoveDoc with the same id instead of minting a new one.
type PathID struct {
	mu    chan struct{} // 1-buffered mutex
	paths map[string]string
}

// NewPathID returns a ready-to-use PathID map.
func NewPathID() *PathID {
	p := &PathID{mu: make(chan struct{}, 1), paths: make(map[string]string)}
	p.mu <- struct{}{}
	return p
}

func (p *PathID) get(path string) (string, bool) {
	<-p.mu
	defer func() { p.mu <- struct{}{} }()
	id, ok := p.paths[path]
	return id, ok
}

func (p *PathID) set(path, id string) {
	<-p.mu
	defer func() { p.mu <- struct{}{} }()
	p.paths[path] = id
}

func (p *PathID) delete(path string) {
	<-p.mu
	defer func() { p.mu <- struct{}{} }()
	delete(p.paths, path)
}

// LoadDir walks dir recursively and ingests every regular file it finds,
// reading files concurrently (bounded by l.Parallel) and then adding each
// one to the index sequentially so that document-id assignment via ids is
// deterministic and data-race free.
func (l *Loader) LoadDir(ctx context.Context, dir string, ids *PathID) (int, error) {
	paths, err := listFiles(dir)
	if err != nil {
		return 0, err
	}

	parallel := l.Parallel
	if parallel <= 0 {
		parallel = 8
	}

	type read struct {
		path string
		text string
	}
	reads := make([]read, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			reads[i] = read{path: path, text: string(content)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	count := 0
	for _, r := range reads {
		id, text := extractID(r.text)
		if id == "" {
			if existing, ok := ids.get(r.path); ok {
				id = existing
			} else {
				id = uuid.NewString()
			}
		}
		ids.set(r.path, id)

		var embedding []float32
		if l.Embed != nil {
			embedding = l.Embed(text)
		}
		l.Index.UpdateDoc(id, text, embedding)
		count++
		log.Printf("indexed %s as %s (%d bytes)", r.path, id, len(text))
	}
	return count, nil
}

// RemoveFile removes the document previously ingested from path, if any.
func (l *Loader) RemoveFile(path string, ids *PathID) {
	id, ok := ids.get(path)
	if !ok {
		return
	}
	l.Index.RemoveDoc(id)
	ids.delete(path)
}

func listFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}

// extractID returns (id, remainingText) if text's first line is an
// "id: <value>" marker followed by a newline; otherwise ("", text) unchanged.
// A text consisting of a marker line alone, with no newline, is not treated
// as carrying an id.
func extractID(text string) (string, string) {
	line, rest, found := strings.Cut(text, "\n")
	trimmed := strings.TrimSpace(line)
	if !found || !strings.HasPrefix(trimmed, idPrefix) {
		return "", text
	}
	id := strings.TrimSpace(strings.TrimPrefix(trimmed, idPrefix))
	if id == "" {
		return "", text
	}
	return id, rest
}
