package sona

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Bryantad/Sona-sub003/typecheck"
)

// configSchema fixes the shape of a host Config loaded from JSON (spec.md
// §6 config table), validated with santhosh-tekuri/jsonschema/v5 before
// being applied (SPEC_FULL.md §4.7) so a malformed host config fails at
// LoadConfigJSON rather than three layers deep inside the evaluator.
const configSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"searchPaths": {"type": "array", "items": {"type": "string"}},
		"projectRoot": {"type": "string"},
		"typeCheck": {"type": "string", "enum": ["off", "warn", "enforce"]},
		"typeCheckIgnore": {"type": "array", "items": {"type": "string"}},
		"watchModulePaths": {"type": "boolean"}
	},
	"additionalProperties": false
}`

type jsonConfig struct {
	SearchPaths      []string `json:"searchPaths"`
	ProjectRoot      string   `json:"projectRoot"`
	TypeCheck        string   `json:"typeCheck"`
	TypeCheckIgnore  []string `json:"typeCheckIgnore"`
	WatchModulePaths bool     `json:"watchModulePaths"`
}

// LoadConfigJSON reads and validates a host Config from a JSON file.
// WatchModulePaths is reported back as the second return value since
// starting the actual fsnotify watch (module.Loader.WatchModulePaths)
// requires a *Context the caller hasn't constructed yet.
func LoadConfigJSON(path string) (cfg Config, watch bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, false, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader([]byte(configSchema))); err != nil {
		return Config{}, false, fmt.Errorf("compiling config schema: %w", err)
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return Config{}, false, fmt.Errorf("compiling config schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Config{}, false, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return Config{}, false, fmt.Errorf("invalid config %s: %w", path, err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return Config{}, false, err
	}
	return Config{
		SearchPaths:     jc.SearchPaths,
		ProjectRoot:     jc.ProjectRoot,
		TypeCheck:       typecheck.ParseMode(jc.TypeCheck),
		TypeCheckIgnore: jc.TypeCheckIgnore,
	}, jc.WatchModulePaths, nil
}
