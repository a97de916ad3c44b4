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
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Level is one of the six ordered geographic filter levels
type Level int

const (
	LevelEstado Level = iota
	LevelDistritoFederal
	LevelDistritoLocal
	LevelMunicipio
	LevelSeccion
	LevelComunidad
)

// Levels lists every geographic level from the root down
var Levels = []Level{
	LevelEstado,
	LevelDistritoFederal,
	LevelDistritoLocal,
	LevelMunicipio,
	LevelSeccion,
	LevelComunidad,
}

type levelInfo struct {
	name     string
	param    string
	endpoint string
	aliases  []string
}

var levelTable = [...]levelInfo{
	LevelEstado:          {"estado", "id_estado", "/filters/estados", []string{"estados"}},
	LevelDistritoFederal: {"distrito-federal", "id_distrito_federal", "/filters/distritos-federales", []string{"distritos-federales", "df"}},
	LevelDistritoLocal:   {"distrito-local", "id_distrito_local", "/filters/distritos-locales", []string{"distritos-locales", "dl"}},
	LevelMunicipio:       {"municipio", "id_municipio", "/filters/municipios", []string{"municipios"}},
	LevelSeccion:         {"seccion", "id_seccion", "/filters/secciones", []string{"secciones", "sección"}},
	LevelComunidad:       {"comunidad", "id_comunidad", "/filters/comunidades", []string{"comunidades"}},
}

func (l Level) valid() bool {
	return l >= LevelEstado && l <= LevelComunidad
}

func (l Level) String() string {
	if !l.valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelTable[l].name
}

// Param is the query parameter that carries this level's id
func (l Level) Param() string {
	return levelTable[l].param
}

// Endpoint is the option-list endpoint for this level
func (l Level) Endpoint() string {
	return levelTable[l].endpoint
}

// Parent returns the level above, false for the root
func (l Level) Parent() (Level, bool) {
	if l <= LevelEstado {
		return l, false
	}
	return l - 1, true
}

// Child returns the level below, false for the leaf
func (l Level) Child() (Level, bool) {
	if l >= LevelComunidad {
		return l, false
	}
	return l + 1, true
}

// IsLeaf reports whether this is the last level of the hierarchy
func (l Level) IsLeaf() bool {
	return l == LevelComunidad
}

// ParseLevel resolves a level from its name or plural endpoint form
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range Levels {
		info := levelTable[l]
		if s == info.name || s == info.param {
			return l, nil
		}
		for _, a := range info.aliases {
			if s == a {
				return l, nil
			}
		}
	}
	return 0, &ValidationError{Field: "level", Value: s, Message: "unknown geographic level"}
}

// FilterScope is the combined geographic and answer-option filter
type FilterScope struct {
	EstadoID          string              `json:"id_estado,omitempty"`
	DistritoFederalID string              `json:"id_distrito_federal,omitempty"`
	DistritoLocalID   string              `json:"id_distrito_local,omitempty"`
	MunicipioID       string              `json:"id_municipio,omitempty"`
	SeccionID         string              `json:"id_seccion,omitempty"`
	ComunidadID       string              `json:"id_comunidad,omitempty"`
	AnswerFilters     map[string][]string `json:"answerFilters,omitempty"`
}

func (s *FilterScope) field(l Level) *string {
	switch l {
	case LevelEstado:
		return &s.EstadoID
	case LevelDistritoFederal:
		return &s.DistritoFederalID
	case LevelDistritoLocal:
		return &s.DistritoLocalID
	case LevelMunicipio:
		return &s.MunicipioID
	case LevelSeccion:
		return &s.SeccionID
	case LevelComunidad:
		return &s.ComunidadID
	}
	return nil
}

// Get returns the value of a level, empty when unset or "all"
func (s FilterScope) Get(l Level) string {
	p := s.field(l)
	if p == nil || IsAbsent(*p) {
		return ""
	}
	return strings.TrimSpace(*p)
}

// Set stores a level value; the sentinel is stored as unset
func (s *FilterScope) Set(l Level, v string) {
	p := s.field(l)
	if p == nil {
		return
	}
	if IsAbsent(v) {
		*p = ""
		return
	}
	*p = strings.TrimSpace(v)
}

// Clone returns a deep copy
func (s FilterScope) Clone() FilterScope {
	out := s
	out.AnswerFilters = compactAnswerFilters(s.AnswerFilters)
	return out
}

// IsAbsent reports whether a filter value means "no restriction"
func IsAbsent(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, AllSentinel)
}

// BuildParams serialises a scope into query parameters, dropping every
// absent value. Answer filters travel as one JSON string.
func BuildParams(scope FilterScope) url.Values {
	params := url.Values{}
	for _, l := range Levels {
		if v := scope.Get(l); v != "" {
			params.Set(l.Param(), v)
		}
	}
	if af := compactAnswerFilters(scope.AnswerFilters); len(af) > 0 {
		// json.Marshal sorts map keys, so the encoding is stable
		data, err := json.Marshal(af)
		if err == nil {
			params.Set("answerFilters", string(data))
		}
	}
	return params
}

// compactAnswerFilters drops absent option ids and questions with no
// selections; the result is nil when nothing remains
func compactAnswerFilters(m map[string][]string) map[string][]string {
	var out map[string][]string
	for q, opts := range m {
		if IsAbsent(q) {
			continue
		}
		var kept []string
		for _, o := range opts {
			if !IsAbsent(o) {
				kept = append(kept, strings.TrimSpace(o))
			}
		}
		if len(kept) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string][]string)
		}
		out[strings.TrimSpace(q)] = kept
	}
	return out
}

// ParseAnswerFilters accepts either the JSON mapping the API expects or
// the shorthand "3=1,2;5=7"
func ParseAnswerFilters(s string) (map[string][]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "{") {
		var m map[string][]string
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, &ValidationError{Field: "answers", Value: s, Message: "invalid JSON mapping"}
		}
		return compactAnswerFilters(m), nil
	}

	m := make(map[string][]string)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		q, opts, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(q) == "" {
			return nil, &ValidationError{Field: "answers", Value: part, Message: "expected question=option[,option]"}
		}
		for _, o := range strings.Split(opts, ",") {
			m[strings.TrimSpace(q)] = append(m[strings.TrimSpace(q)], o)
		}
	}
	return compactAnswerFilters(m), nil
}

// sortIDs orders ids numerically when both sides are integers, else
// lexically
func sortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		if errA == nil {
			return true
		}
		if errB == nil {
			return false
		}
		return ids[i] < ids[j]
	})
}
