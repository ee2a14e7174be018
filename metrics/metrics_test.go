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

package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestObserveQueryAppearsInHandler(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.ObserveQuery("bm25", 2*time.Millisecond, 3)
	m.SetDocumentsIndexed(42)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `searchdb_queries_total{modality="bm25"} 1`) {
		t.Errorf("metrics body missing bm25 query counter:\n%s", body)
	}
	if !strings.Contains(body, "searchdb_documents_indexed 42") {
		t.Errorf("metrics body missing documents_indexed gauge:\n%s", body)
	}
}

func TestDisabledManagerIsNoop(t *testing.T) {
	m := NewManager(Config{Enabled: false})
	m.ObserveQuery("bm25", time.Millisecond, 1) // must not panic
	m.SetDocumentsIndexed(1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled Handler status = %d, want 404", rec.Code)
	}
}

func TestServeRespectsContextCancellation(t *testing.T) {
	m := NewManager(Config{Enabled: false})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := m.Serve(ctx, ":0"); err != nil {
		t.Errorf("Serve (disabled) = %v, want nil", err)
	}
}
