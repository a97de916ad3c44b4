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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString_AcceptsStringsAndNumbers(t *testing.T) {
	var regions []Region
	err := json.Unmarshal([]byte(`[{"id":5,"nombre":"Centro"},{"id":"0412","nombre":"Sección"},{"id":null,"nombre":"?"}]`), &regions)
	require.NoError(t, err)

	assert.Equal(t, FlexString("5"), regions[0].ID)
	assert.Equal(t, FlexString("0412"), regions[1].ID)
	assert.Equal(t, FlexString(""), regions[2].ID)

	var bad FlexString
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &bad))
}

func TestFlexFloat_AcceptsNumericStrings(t *testing.T) {
	var rows []QuestionResultDto
	err := json.Unmarshal([]byte(`[{"label":"a","value":3},{"label":"b","value":"4.5"},{"label":"c","value":""},{"label":"d","value":null}]`), &rows)
	require.NoError(t, err)

	assert.Equal(t, FlexFloat(3), rows[0].Value)
	assert.Equal(t, FlexFloat(4.5), rows[1].Value)
	assert.Equal(t, FlexFloat(0), rows[2].Value)
	assert.Equal(t, FlexFloat(0), rows[3].Value)

	var bad FlexFloat
	assert.Error(t, json.Unmarshal([]byte(`"many"`), &bad))
}

func TestReport_ErrNotSerialised(t *testing.T) {
	data, err := json.Marshal(Report{RunID: "abc", Partial: true, Cause: "boom"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"partial":true`)
	assert.NotContains(t, string(data), "Err")
}
