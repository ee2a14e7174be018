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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIngestCommandReportsDocumentCount(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "alpha beta")
	writeFixture(t, dir, "b.txt", "gamma delta")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"ingest", "--dir", dir})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "indexed 2 document")
}

func TestQueryCommandPrintsBM25Results(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "id: doc-a\nalpha beta gamma")
	writeFixture(t, dir, "b.txt", "id: doc-b\nunrelated text entirely")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"query", "--dir", dir, "--mode", "bm25", "alpha", "beta"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "doc-a")
}

func TestQueryCommandRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "alpha")

	root := newRootCmd()
	root.SetArgs([]string{"query", "--dir", dir, "--mode", "bogus", "alpha"})
	err := root.Execute()
	require.Error(t, err)
}

func TestQueryCommandRequiresText(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "alpha")

	root := newRootCmd()
	root.SetArgs([]string{"query", "--dir", dir})
	err := root.Execute()
	require.Error(t, err)
}
