// Package config loads optional YAML configuration files and exposes them to
// kong as a flag resolver. Flags and environment variables take precedence
// over file values.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML returns a kong resolver backed by a YAML document. Keys may be given
// flat (`listen: ...`) or scoped by command (`serve: {listen: ...}`); the
// scoped form wins. Dashes in flag names may be written as underscores.
//
// It satisfies kong.ConfigurationLoader.
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var f kong.ResolverFunc = func(kctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if section, ok := lookupMap(values, parent.Command.Name); ok {
				if v, ok := lookup(section, flag.Name); ok {
					return v, nil
				}
			}
		}
		if v, ok := lookup(values, flag.Name); ok {
			return v, nil
		}
		return nil, nil
	}
	return f, nil
}

func lookup(values map[string]any, name string) (any, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		if v, ok := values[key]; ok {
			if _, isMap := v.(map[string]any); isMap {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

func lookupMap(values map[string]any, name string) (map[string]any, bool) {
	v, ok := values[name]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}
