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

// Package logger builds the zerolog logger of the engine from configuration.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Config describes the logger.
type Config struct {
	Level      string         `mapstructure:"level" json:"level,omitempty" validate:"oneof=trace debug info warn error disabled"`
	Format     string         `mapstructure:"format" json:"format,omitempty" validate:"oneof=json console"`
	Output     string         `mapstructure:"output" json:"output,omitempty" validate:"oneof=stdout stderr"`
	Env        string         `mapstructure:"env" json:"env,omitempty" validate:"oneof=dev staging prod"`
	TimeFormat string         `mapstructure:"timeFormat" json:"timeFormat,omitempty" validate:"oneof=rfc3339 rfc3339nano unix unix_ms"`
	WithCaller bool           `mapstructure:"withCaller" json:"withCaller,omitempty"`
	Fields     map[string]any `mapstructure:"fields" json:"fields,omitempty"`

	// Writer replaces Output when set.
	Writer io.Writer `mapstructure:"-" json:"-"`
}

var validate = validator.New()

// New returns a logger for cfg. Unset values get environment dependent
// defaults: dev logs at debug level to a console writer, the other
// environments log JSON at info level.
func New(cfg *Config) (zerolog.Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := validate.Struct(cfg); err != nil {
		return zerolog.Nop(), fmt.Errorf("logger config validation error: %w", err)
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := cfg.Writer
	if out == nil {
		out = os.Stdout
		if cfg.Output == "stderr" {
			out = os.Stderr
		}
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat(cfg.TimeFormat)}
	}

	ctx := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("env", cfg.Env)
	if cfg.WithCaller {
		ctx = ctx.Caller()
	}
	if len(cfg.Fields) > 0 {
		ctx = ctx.Fields(cfg.Fields)
	}
	return ctx.Logger(), nil
}

func (c *Config) setDefaults() {
	if c.Env == "" {
		c.Env = "prod"
	}
	if c.Level == "" {
		if c.Env == "dev" {
			c.Level = "debug"
		} else {
			c.Level = "info"
		}
	}
	if c.Format == "" {
		if c.Env == "dev" {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "rfc3339nano"
	}
}

func consoleTimeFormat(name string) string {
	switch name {
	case "rfc3339":
		return time.RFC3339
	case "unix", "unix_ms":
		return time.StampMilli
	default:
		return time.RFC3339Nano
	}
}
