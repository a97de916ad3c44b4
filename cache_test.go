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

func TestCache_SetGet(t *testing.T) {
	c := NewMemoryCache(NewDiscardLogger())

	require.NoError(t, c.Set("options_3", []QuestionOption{{ID: "1", Opcion: "Sí"}}, 0))

	var got []QuestionOption
	ok, err := c.Get("options_3", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Sí", got[0].Opcion)

	ok, err = c.Get("missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_TTL(t *testing.T) {
	c := NewMemoryCache(NewDiscardLogger())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("short", 1, time.Minute))
	require.NoError(t, c.Set("forever", 2, 0))

	var v int
	ok, _ := c.Get("short", &v)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = c.Get("short", &v)
	assert.False(t, ok)
	ok, _ = c.Get("forever", &v)
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	total, expired := c.Stats()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, expired)

	require.NoError(t, c.Close())
	total, expired = c.Stats()
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, expired)
}

func TestCache_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c, err := NewCache(path, NewDiscardLogger())
	require.NoError(t, err)
	require.NoError(t, c.Set("options_5", []string{"a", "b"}, time.Hour))
	require.NoError(t, c.Close())

	reopened, err := NewCache(path, NewDiscardLogger())
	require.NoError(t, err)
	var got []string
	ok, err := reopened.Get("options_5", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, reopened.Delete("options_5"))
	ok, _ = reopened.Get("options_5", &got)
	assert.False(t, ok)
}

func TestCache_ClearAndCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	c, err := NewCache(path, NewDiscardLogger())
	require.NoError(t, err)
	total, _ := c.Stats()
	assert.Equal(t, 0, total)

	require.NoError(t, c.Set("a", 1, 0))
	require.NoError(t, c.Clear())
	total, _ = c.Stats()
	assert.Equal(t, 0, total)
}

func TestCache_Persistent(t *testing.T) {
	assert.False(t, NewMemoryCache(NewDiscardLogger()).Persistent())

	c, err := NewCache(filepath.Join(t.TempDir(), "cache.json"), NewDiscardLogger())
	require.NoError(t, err)
	assert.True(t, c.Persistent())
}

func TestCache_MemoryWritesNothing(t *testing.T) {
	dir := t.TempDir()
	c := NewMemoryCache(NewDiscardLogger())
	require.NoError(t, c.Set("a", 1, 0))
	require.NoError(t, c.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
