package config

import (
	_ "embed"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	EnvPrefix         = "PIPESH"
)

// Configuration is the shell's settings. Fields are read from config.yaml
// and can be overridden by environment variables named after them, e.g.
// PIPESH_HISTORY_FILE or PIPESH_LOG_LEVEL.
type Configuration struct {
	configurationDir string

	Prompt       string `json:"prompt"`
	Color        string `json:"color" validate:"oneof=always auto never"`
	HistoryFile  string `json:"history_file" split_words:"true"`
	HistoryLimit int    `json:"history_limit" split_words:"true" validate:"gte=0"`

	Aliases map[string]string `json:"aliases" ignored:"true" validate:"dive,keys,required,endkeys"`
	Env     map[string]string `json:"env" ignored:"true" validate:"dive,keys,required,excludes==,endkeys"`

	Log Log `json:"log"`
}

type Log struct {
	Level       string `json:"level" validate:"oneof=debug info warn error"`
	Path        string `json:"path"`
	Development bool   `json:"development"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Dir returns the directory the configuration was loaded from, empty for the
// built in defaults.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

// HistoryPath resolves the history file against home, it's empty if history
// shouldn't be persisted.
func (c *Configuration) HistoryPath(home string) string {
	switch {
	case c.HistoryFile == "":
		return ""
	case c.HistoryFile == "~":
		return home
	case strings.HasPrefix(c.HistoryFile, "~/"):
		return filepath.Join(home, c.HistoryFile[2:])
	case filepath.IsAbs(c.HistoryFile):
		return c.HistoryFile
	default:
		return filepath.Join(home, c.HistoryFile)
	}
}

// DefaultConfig returns the built in configuration.
func DefaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
