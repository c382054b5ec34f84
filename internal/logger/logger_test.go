/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Writer: &buf}
	logger, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	logger.Debug().Msg("hidden")
	logger.Info().Str("k", "v").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
	assert.Equal(t, "prod", entry["env"])
}

func TestNew_DevConsole(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Env: "dev", Writer: &buf}
	logger, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "console", cfg.Format)

	logger.Debug().Msg("console line")
	assert.Contains(t, buf.String(), "console line")
}

func TestNew_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Writer: &buf, Fields: map[string]any{"service": "dao"}})
	require.NoError(t, err)
	logger.Warn().Msg("x")
	assert.Contains(t, buf.String(), `"service":"dao"`)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "level", cfg: Config{Level: "loud"}},
		{name: "env", cfg: Config{Env: "local"}},
		{name: "format", cfg: Config{Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew_Nil(t *testing.T) {
	_, err := New(nil)
	assert.NoError(t, err)
}
