// Copyright 2025 Matthew Gall <me@matthewgall.dev>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexString accepts a JSON string or number and keeps it as a string.
// The survey API is not consistent about how it serialises ids.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// FlexFloat accepts a JSON number or a numeric string
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric string %q: %w", s, err)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// Region is one node of the geographic hierarchy
type Region struct {
	ID     FlexString `json:"id"`
	Nombre string     `json:"nombre"`
}

// SurveyQuestion is one question of the survey
type SurveyQuestion struct {
	ID       FlexString `json:"id"`
	Pregunta string     `json:"pregunta"`
}

// QuestionOption is an answer option scoped to one question
type QuestionOption struct {
	ID     FlexString `json:"id"`
	Opcion string     `json:"opcion"`
}

// QuestionResultDto is the aggregated tally for one answer option
type QuestionResultDto struct {
	Label string    `json:"label"`
	Value FlexFloat `json:"value"`
}

// Cobertura holds the territorial coverage counts
type Cobertura struct {
	Municipios       FlexFloat `json:"municipios"`
	DistritosLocales FlexFloat `json:"distritosLocales"`
}

// GeneroTotal is one bucket of the gender participation breakdown
type GeneroTotal struct {
	Genero string    `json:"genero"`
	Total  FlexFloat `json:"total"`
}

// KpisGenerales holds aggregate counts for the current scope
type KpisGenerales struct {
	TotalEncuestas      FlexFloat     `json:"totalEncuestas"`
	Cobertura           Cobertura     `json:"cobertura"`
	ParticipacionGenero []GeneroTotal `json:"participacionGenero"`
}

// Ubicacion is one surveyed location, coordinates as decimal strings
type Ubicacion struct {
	Latitud  FlexString `json:"latitud"`
	Longitud FlexString `json:"longitud"`
}

// ChartDataItem is the uniform shape every chart renderer consumes
type ChartDataItem struct {
	Label string
	Value float64
	Color string // hex, empty means "take from the palette"
}

// ScopeLabels carries display names for the metadata line of a report
type ScopeLabels struct {
	Survey    string `json:"survey"`
	Municipio string `json:"municipio,omitempty"`
	Seccion   string `json:"seccion,omitempty"`
	Comunidad string `json:"comunidad,omitempty"`
}

// Report describes the outcome of one report generation run
type Report struct {
	RunID       string        `json:"run_id"`
	Path        string        `json:"path"`
	Pages       int           `json:"pages"`
	Questions   int           `json:"questions"`
	Partial     bool          `json:"partial"`
	Cause       string        `json:"cause,omitempty"`
	Err         error         `json:"-"`
	Scope       FilterScope   `json:"scope"`
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration"`
}
