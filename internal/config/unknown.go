package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadWithWarnings parses config data and returns any unknown field warnings.
func LoadWithWarnings(data []byte) (*Config, []string, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, nil, err
	}
	return cfg, detectUnknownFields(data), nil
}

// detectUnknownFields compares raw YAML keys with known struct fields.
func detectUnknownFields(data []byte) []string {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return []string{"internal: failed to re-parse config for unknown field detection"}
	}

	var warnings []string
	warnings = append(warnings, unknownKeys(raw, reflect.TypeOf(Config{}), "root level")...)

	nested := map[string]reflect.Type{
		"reap":      reflect.TypeOf(ReapConfig{}),
		"toolchain": reflect.TypeOf(ToolchainConfig{}),
	}
	for key, typ := range nested {
		node, ok := raw[key]
		if !ok {
			continue
		}
		var section map[string]yaml.Node
		if err := node.Decode(&section); err != nil {
			continue
		}
		warnings = append(warnings, unknownKeys(section, typ, fmt.Sprintf("%q", key))...)
	}

	sort.Strings(warnings)
	return warnings
}

func unknownKeys(raw map[string]yaml.Node, typ reflect.Type, where string) []string {
	known := getYAMLFields(typ)
	var warnings []string
	for key := range raw {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at %s (ignored)", key, where))
		}
	}
	return warnings
}

// getYAMLFields returns a map of known YAML field names for a struct type.
func getYAMLFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}
