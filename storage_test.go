// Copyright 2025 Matthew Gall <me@matthewgall.dev>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_SaveAndListReports(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, NewDiscardLogger())
	require.NoError(t, err)
	defer s.Close()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	older := &Report{RunID: "11111111-aaaa", Pages: 3, GeneratedAt: base}
	newer := &Report{RunID: "22222222-bbbb", Pages: 5, Partial: true, Cause: "timeout", GeneratedAt: base.Add(time.Hour),
		Scope: FilterScope{MunicipioID: "5"}}

	require.NoError(t, s.SaveReport(older))
	require.NoError(t, s.SaveReport(newer))
	assert.FileExists(t, filepath.Join(dir, "report_2024-06-01_12-00-00_11111111.json"))

	reports, err := s.ListReports()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, newer.RunID, reports[0].RunID)
	assert.True(t, reports[0].Partial)
	assert.Equal(t, "5", reports[0].Scope.MunicipioID)
	assert.Equal(t, older.RunID, reports[1].RunID)

	latest, err := s.LatestReport()
	require.NoError(t, err)
	assert.Equal(t, 5, latest.Pages)
}

func TestStorage_SkipsUnreadableManifests(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, NewDiscardLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "report_broken.json"), []byte("{"), 0644))
	require.NoError(t, s.SaveReport(&Report{RunID: "abc", GeneratedAt: time.Now()}))

	reports, err := s.ListReports()
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestStorage_LatestReportEmpty(t *testing.T) {
	s, err := NewStorage(filepath.Join(t.TempDir(), "nested", "data"), NewDiscardLogger())
	require.NoError(t, err)

	latest, err := s.LatestReport()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestStorage_OptionCacheIsFileBacked(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, NewDiscardLogger())
	require.NoError(t, err)

	require.NoError(t, s.OptionCache().Set(optionCacheKey("3"), []QuestionOption{{ID: "1"}}, 0))
	require.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(dir, optionCacheFile))
}
