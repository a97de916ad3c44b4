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
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	path  string
	query url.Values
	agent string
}

// newTestServer serves fixed JSON bodies by path and records every request
func newTestServer(t *testing.T, bodies map[string]string) (*SurveyClient, func() []seenRequest) {
	t.Helper()

	var mu sync.Mutex
	var seen []seenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, seenRequest{path: r.URL.Path, query: r.URL.Query(), agent: r.UserAgent()})
		mu.Unlock()

		body, ok := bodies[r.URL.Path]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := NewSurveyClient(srv.URL+"/", 5*time.Second, NewDiscardLogger())
	return client, func() []seenRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]seenRequest(nil), seen...)
	}
}

func TestSurveyClient_QuestionResultsSendsScope(t *testing.T) {
	client, seen := newTestServer(t, map[string]string{
		"/dashboard/question-results/7": `[{"label":"Hombre","value":22},{"label":"Mujer","value":"15"}]`,
	})

	scope := FilterScope{
		EstadoID:      "all",
		MunicipioID:   "5",
		SeccionID:     " ",
		AnswerFilters: map[string][]string{"3": {"1", "2"}, "4": {"all"}},
	}
	results, err := client.QuestionResults(context.Background(), "7", scope)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Mujer", results[1].Label)
	assert.Equal(t, FlexFloat(15), results[1].Value)

	reqs := seen()
	require.Len(t, reqs, 1)
	q := reqs[0].query
	assert.Equal(t, "5", q.Get("id_municipio"))
	assert.False(t, q.Has("id_estado"))
	assert.False(t, q.Has("id_seccion"))
	assert.Equal(t, `{"3":["1","2"]}`, q.Get("answerFilters"))
	assert.Equal(t, GetUserAgent(), reqs[0].agent)
}

func TestSurveyClient_KPIs(t *testing.T) {
	client, _ := newTestServer(t, map[string]string{
		"/dashboard/kpis-generales": `{"totalEncuestas":"1234","cobertura":{"municipios":5,"distritosLocales":2},
			"participacionGenero":[{"genero":"Hombre","total":22}]}`,
	})

	kpis, err := client.KPIs(context.Background(), FilterScope{})
	require.NoError(t, err)
	assert.Equal(t, FlexFloat(1234), kpis.TotalEncuestas)
	assert.Equal(t, FlexFloat(5), kpis.Cobertura.Municipios)
	require.Len(t, kpis.ParticipacionGenero, 1)
}

func TestSurveyClient_RegionsParentParam(t *testing.T) {
	client, seen := newTestServer(t, map[string]string{
		"/filters/estados":    `[{"id":27,"nombre":"Tabasco"}]`,
		"/filters/municipios": `[{"id":"5","nombre":"Centro"}]`,
	})

	estados, err := client.Regions(context.Background(), LevelEstado, "99")
	require.NoError(t, err)
	require.Len(t, estados, 1)
	assert.Equal(t, FlexString("27"), estados[0].ID)

	municipios, err := client.Regions(context.Background(), LevelMunicipio, "12")
	require.NoError(t, err)
	assert.Equal(t, "Centro", municipios[0].Nombre)

	_, err = client.Regions(context.Background(), LevelMunicipio, "all")
	require.NoError(t, err)

	reqs := seen()
	require.Len(t, reqs, 3)
	assert.Empty(t, reqs[0].query)
	assert.Equal(t, "12", reqs[1].query.Get("id_distrito_local"))
	assert.Empty(t, reqs[2].query)

	_, err = client.Regions(context.Background(), Level(42), "")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestSurveyClient_QuestionsAndOptions(t *testing.T) {
	client, _ := newTestServer(t, map[string]string{
		"/filters/questions": `[{"id":1,"pregunta":"¿Votará?"},{"id":"2","pregunta":"¿Por quién?"}]`,
		"/filters/options/1": `[{"id":1,"opcion":"Sí"},{"id":2,"opcion":"No"}]`,
	})

	questions, err := client.Questions(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, FlexString("1"), questions[0].ID)

	options, err := client.QuestionOptions(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []QuestionOption{{ID: "1", Opcion: "Sí"}, {ID: "2", Opcion: "No"}}, options)
}

func TestSurveyClient_StatusError(t *testing.T) {
	client, _ := newTestServer(t, map[string]string{})

	_, err := client.Locations(context.Background(), FilterScope{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not found", apiErr.Message)
	assert.False(t, apiErr.IsRetryable())
}

func TestSurveyClient_BadJSON(t *testing.T) {
	client, _ := newTestServer(t, map[string]string{
		"/dashboard/ubicaciones": `{"not":"a list"`,
	})

	_, err := client.Locations(context.Background(), FilterScope{})
	assert.Error(t, err)
}

func TestSurveyClient_CancelledContext(t *testing.T) {
	client, _ := newTestServer(t, map[string]string{"/filters/questions": `[]`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Questions(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
