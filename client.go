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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SurveyAPI is the set of reads the dashboard and report generator need.
// *SurveyClient implements it against the REST API.
type SurveyAPI interface {
	KPIs(ctx context.Context, scope FilterScope) (*KpisGenerales, error)
	Locations(ctx context.Context, scope FilterScope) ([]Ubicacion, error)
	QuestionResults(ctx context.Context, questionID string, scope FilterScope) ([]QuestionResultDto, error)
	Regions(ctx context.Context, level Level, parentID string) ([]Region, error)
	Questions(ctx context.Context) ([]SurveyQuestion, error)
	QuestionOptions(ctx context.Context, questionID string) ([]QuestionOption, error)
}

// SurveyClient handles communication with the survey REST API
type SurveyClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *Logger
}

// NewSurveyClient creates a new survey API client. A zero timeout leaves
// requests unbounded, matching the dashboard's behaviour.
func NewSurveyClient(baseURL string, timeout time.Duration, logger *Logger) *SurveyClient {
	return &SurveyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.WithComponent("api"),
	}
}

// KPIs fetches the aggregate counts for a scope
func (c *SurveyClient) KPIs(ctx context.Context, scope FilterScope) (*KpisGenerales, error) {
	var kpis KpisGenerales
	if err := c.get(ctx, endpointKPIs, BuildParams(scope), &kpis); err != nil {
		return nil, err
	}
	return &kpis, nil
}

// Locations fetches the surveyed points for the heatmap
func (c *SurveyClient) Locations(ctx context.Context, scope FilterScope) ([]Ubicacion, error) {
	var points []Ubicacion
	if err := c.get(ctx, endpointLocations, BuildParams(scope), &points); err != nil {
		return nil, err
	}
	c.logger.LogDataCollection("ubicaciones", len(points))
	return points, nil
}

// QuestionResults fetches the per-option tallies of one question
func (c *SurveyClient) QuestionResults(ctx context.Context, questionID string, scope FilterScope) ([]QuestionResultDto, error) {
	path := fmt.Sprintf(endpointQuestionResults, url.PathEscape(questionID))
	var results []QuestionResultDto
	if err := c.get(ctx, path, BuildParams(scope), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Regions fetches the option list of a level, scoped to the parent id.
// The root level takes no parent.
func (c *SurveyClient) Regions(ctx context.Context, level Level, parentID string) ([]Region, error) {
	if !level.valid() {
		return nil, &ValidationError{Field: "level", Value: level.String(), Message: "unknown geographic level"}
	}
	params := url.Values{}
	if parent, ok := level.Parent(); ok && !IsAbsent(parentID) {
		params.Set(parent.Param(), strings.TrimSpace(parentID))
	}
	var regions []Region
	if err := c.get(ctx, level.Endpoint(), params, &regions); err != nil {
		return nil, err
	}
	c.logger.LogDataCollection(level.String(), len(regions))
	return regions, nil
}

// Questions fetches the full survey question list
func (c *SurveyClient) Questions(ctx context.Context) ([]SurveyQuestion, error) {
	var questions []SurveyQuestion
	if err := c.get(ctx, endpointQuestions, nil, &questions); err != nil {
		return nil, err
	}
	c.logger.LogDataCollection("questions", len(questions))
	return questions, nil
}

// QuestionOptions fetches the answer options of one question
func (c *SurveyClient) QuestionOptions(ctx context.Context, questionID string) ([]QuestionOption, error) {
	path := fmt.Sprintf(endpointOptions, url.PathEscape(questionID))
	var options []QuestionOption
	if err := c.get(ctx, path, nil, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// get issues one GET and decodes the JSON body into target
func (c *SurveyClient) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", GetUserAgent())

	c.logger.LogAPIRequest(http.MethodGet, endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{
			Endpoint: endpoint,
			Message:  "request failed",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    strings.TrimSpace(string(bodyBytes)),
		}
		c.logger.LogAPIError(endpoint, resp.StatusCode, apiErr.IsRetryable(), apiErr)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
