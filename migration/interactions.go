package migration

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInteractions reads the `--interactions FILE` TOML spec §6
// describes: repeated `[[rename-table]]` tables with `old-table` and
// `new-table` string keys. No TOML library appears anywhere in the
// retrieved example corpus, so this reads the one subset the migration
// CLI actually needs (array-of-tables headers and `key = "value"`
// pairs) rather than pull in a general-purpose parser for a single use
// site.
func ParseInteractions(data string) (Interactions, error) {
	var in Interactions
	var current *TableRename

	for lineNo, raw := range strings.Split(data, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[[") {
			if current != nil {
				in.RenameTables = append(in.RenameTables, *current)
			}
			header := strings.TrimSuffix(strings.TrimPrefix(line, "[["), "]]")
			if header != "rename-table" {
				return in, fmt.Errorf("interactions: line %d: unknown table %q", lineNo+1, header)
			}
			current = &TableRename{}
			continue
		}
		if current == nil {
			return in, fmt.Errorf("interactions: line %d: key outside any [[rename-table]] block", lineNo+1)
		}
		key, value, err := parseKV(line)
		if err != nil {
			return in, fmt.Errorf("interactions: line %d: %w", lineNo+1, err)
		}
		switch key {
		case "old-table":
			current.OldTable = value
		case "new-table":
			current.NewTable = value
		default:
			return in, fmt.Errorf("interactions: line %d: unknown key %q", lineNo+1, key)
		}
	}
	if current != nil {
		in.RenameTables = append(in.RenameTables, *current)
	}
	return in, nil
}

func parseKV(line string) (key, value string, err error) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", fmt.Errorf("expected key = value, got %q", line)
	}
	key = strings.TrimSpace(line[:idx])
	rawValue := strings.TrimSpace(line[idx+1:])
	value, err = strconv.Unquote(rawValue)
	if err != nil {
		return "", "", fmt.Errorf("expected a quoted string value for %q, got %q", key, rawValue)
	}
	return key, value, nil
}
