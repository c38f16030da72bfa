package main

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// tomlParser is a ff.ConfigFileParser for flat TOML files, e.g.
//
//	log-level = "debug"
//	chunk-size = 1048576
//	resync = true
func tomlParser(r io.Reader, set func(name, value string) error) error {
	var values map[string]any
	if _, err := toml.NewDecoder(r).Decode(&values); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	for name, value := range values {
		switch v := value.(type) {
		case map[string]any, []map[string]any:
			return fmt.Errorf("config file: %s: tables are not supported", name)
		case []any:
			for _, item := range v {
				if err := set(name, fmt.Sprint(item)); err != nil {
					return err
				}
			}
		default:
			if err := set(name, fmt.Sprint(v)); err != nil {
				return err
			}
		}
	}
	return nil
}
