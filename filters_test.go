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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParams_DropsAbsentValues(t *testing.T) {
	params := BuildParams(FilterScope{
		EstadoID:          "27",
		DistritoFederalID: "all",
		DistritoLocalID:   "",
		MunicipioID:       " 5 ",
		SeccionID:         "ALL",
		AnswerFilters: map[string][]string{
			"4": {"9"},
			"3": {"1", "all", "2"},
			"8": {"", "all"},
		},
	})

	assert.Equal(t, "27", params.Get("id_estado"))
	assert.Equal(t, "5", params.Get("id_municipio"))
	assert.False(t, params.Has("id_distrito_federal"))
	assert.False(t, params.Has("id_distrito_local"))
	assert.False(t, params.Has("id_seccion"))
	assert.False(t, params.Has("id_comunidad"))
	assert.Equal(t, `{"3":["1","2"],"4":["9"]}`, params.Get("answerFilters"))
}

func TestBuildParams_EmptyScope(t *testing.T) {
	assert.Empty(t, BuildParams(FilterScope{}))
	assert.Empty(t, BuildParams(FilterScope{AnswerFilters: map[string][]string{"3": {}}}))
}

func TestParseAnswerFilters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string][]string
	}{
		{"empty", "", nil},
		{"json", `{"3":["1","2"],"5":[]}`, map[string][]string{"3": {"1", "2"}}},
		{"shorthand", "3=1,2; 5=7", map[string][]string{"3": {"1", "2"}, "5": {"7"}}},
		{"shorthand drops all", "3=all;4=2", map[string][]string{"4": {"2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswerFilters(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{`{"3":`, "3", "=1"} {
		_, err := ParseAnswerFilters(bad)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), bad)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"estado":           LevelEstado,
		"Distrito-Federal": LevelDistritoFederal,
		"dl":               LevelDistritoLocal,
		"municipios":       LevelMunicipio,
		"id_seccion":       LevelSeccion,
		"sección":          LevelSeccion,
		" comunidad ":      LevelComunidad,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("colonia")
	assert.Error(t, err)
}

func TestLevel_Hierarchy(t *testing.T) {
	_, ok := LevelEstado.Parent()
	assert.False(t, ok)

	parent, ok := LevelSeccion.Parent()
	require.True(t, ok)
	assert.Equal(t, LevelMunicipio, parent)

	child, ok := LevelEstado.Child()
	require.True(t, ok)
	assert.Equal(t, LevelDistritoFederal, child)

	_, ok = LevelComunidad.Child()
	assert.False(t, ok)
	assert.True(t, LevelComunidad.IsLeaf())
	assert.False(t, LevelMunicipio.IsLeaf())

	assert.Equal(t, "distrito-local", LevelDistritoLocal.String())
	assert.Equal(t, "id_distrito_local", LevelDistritoLocal.Param())
	assert.Equal(t, "/filters/secciones", LevelSeccion.Endpoint())
	assert.Equal(t, "level(9)", Level(9).String())
}

func TestFilterScope_GetSetClone(t *testing.T) {
	var s FilterScope
	s.Set(LevelMunicipio, " 5 ")
	s.Set(LevelSeccion, "all")
	assert.Equal(t, "5", s.Get(LevelMunicipio))
	assert.Equal(t, "", s.SeccionID)
	assert.Equal(t, "", s.Get(LevelSeccion))

	s.Set(Level(9), "x")
	assert.Equal(t, "", s.Get(Level(9)))

	s.AnswerFilters = map[string][]string{"3": {"1"}}
	c := s.Clone()
	c.AnswerFilters["3"][0] = "9"
	assert.Equal(t, "1", s.AnswerFilters["3"][0])
}

func TestIsAbsent(t *testing.T) {
	assert.True(t, IsAbsent(""))
	assert.True(t, IsAbsent("  "))
	assert.True(t, IsAbsent("all"))
	assert.True(t, IsAbsent("All"))
	assert.False(t, IsAbsent("0"))
}

func TestSortIDs(t *testing.T) {
	ids := []string{"10", "b", "2", "a", "1"}
	sortIDs(ids)
	assert.Equal(t, []string{"1", "2", "10", "a", "b"}, ids)
}
