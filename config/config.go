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

// Package config loads the engine configuration from a file and the environment.
//
// Values are read with viper from a YAML, JSON or TOML file and may be
// overridden by environment variables prefixed with DAO_, for example
// DAO_DEFAULT or DAO_LOGGER_LEVEL. A .env file is loaded into the
// environment first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/go-juicedev/dao/internal/logger"
)

// EnvPrefix is the prefix of the environment variables that override the file.
const EnvPrefix = "DAO"

// keyDelimiter replaces the dot of viper so that keys may contain dots.
const keyDelimiter = "::"

// Datasource configures one routing key.
type Datasource struct {
	Driver          string `mapstructure:"driver" validate:"required"`
	DSN             string `mapstructure:"dsn" validate:"required"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns" validate:"gte=0"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns" validate:"gte=0"`
	ConnMaxLifetime int    `mapstructure:"connMaxLifetime" validate:"gte=0"` // seconds
	ConnMaxIdleTime int    `mapstructure:"connMaxIdleTime" validate:"gte=0"` // seconds
	Dialect         string `mapstructure:"dialect" validate:"omitempty,oneof=offset-limit mysql h2 limit-offset postgres row-number rownum"`
	FakeColumn      string `mapstructure:"fakeColumn" validate:"omitempty,max=64"`
}

// Template is one entry of the SQL template registry.
type Template struct {
	Key string `mapstructure:"key" validate:"required"`
	SQL string `mapstructure:"sql" validate:"required"`
}

// Config is the configuration of an engine.
type Config struct {
	// Default is the routing key used when no other key applies.
	Default string `mapstructure:"default" validate:"required"`
	// Debug logs every statement.
	Debug bool `mapstructure:"debug"`
	// Datasources maps routing keys to connections.
	// Keys are case-insensitive and stored in lower case.
	Datasources map[string]Datasource `mapstructure:"datasources" validate:"required,min=1,dive"`
	// Templates are registered under their key.
	Templates []Template `mapstructure:"templates" validate:"dive"`
	// Logger is validated when the logger is built.
	Logger logger.Config `mapstructure:"logger" validate:"-"`
}

var validate = validator.New()

// Validate checks the configuration.
func (c *Config) Validate() error {
	c.Default = strings.ToLower(c.Default)
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	if _, ok := c.Datasources[c.Default]; !ok {
		return fmt.Errorf("config validation error: default datasource %q is not configured", c.Default)
	}
	seen := make(map[string]struct{}, len(c.Templates))
	for _, template := range c.Templates {
		if _, ok := seen[template.Key]; ok {
			return fmt.Errorf("config validation error: duplicate template %q", template.Key)
		}
		seen[template.Key] = struct{}{}
	}
	return nil
}

// TemplateMap returns the templates keyed by their key.
func (c *Config) TemplateMap() map[string]string {
	templates := make(map[string]string, len(c.Templates))
	for _, template := range c.Templates {
		templates[template.Key] = template.SQL
	}
	return templates
}

// Load reads the configuration file at path.
// envFiles are loaded into the environment first; without envFiles a .env
// file in the working directory is loaded when it exists.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnv(envFiles); err != nil {
		return nil, err
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// keys need a value to be looked up in the environment
	v.SetDefault("default", "")
	v.SetDefault("debug", false)
	v.SetDefault("logger"+keyDelimiter+"level", "")
	v.SetDefault("logger"+keyDelimiter+"env", "")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func loadEnv(files []string) error {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return fmt.Errorf("load env files: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
