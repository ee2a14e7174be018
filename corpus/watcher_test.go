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

package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"devops/searchdb"
)

func TestWatcherReindexesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("alpha"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	idx := searchdb.New()
	l := &Loader{Index: idx}
	ids := NewPathID()
	if _, err := l.LoadDir(context.Background(), dir, ids); err != nil {
		t.Fatalf("initial LoadDir: %v", err)
	}

	w, err := NewWatcher(dir, l, ids, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Watch(ctx)

	time.Sleep(20 * time.Millisecond) // let Watch reach its select loop
	if err := os.WriteFile(path, []byte("zulu"), 0o644); err != nil {
		t.Fatalf("WriteFile (update): %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := idx.BM25TopK("zulu", 5); len(got) == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("watcher did not reindex %s within deadline", path)
}

func TestWatcherDoubleWatchRejected(t *testing.T) {
	dir := t.TempDir()
	idx := searchdb.New()
	l := &Loader{Index: idx}
	ids := NewPathID()

	w, err := NewWatcher(dir, l, ids)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Watch(ctx)
	time.Sleep(20 * time.Millisecond)

	if err := w.Watch(context.Background()); err == nil {
		t.Errorf("second Watch() call = nil error, want already-running error")
	}
}
