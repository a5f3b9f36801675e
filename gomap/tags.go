package gomap

import (
	"fmt"
	"strings"
)

// graphTag is the parsed form of a `graph:"..."` struct tag.
type graphTag struct {
	Skip    bool
	Name    string
	Backref bool
	Owner   bool
}

// ParseStructTag parses a struct tag string and returns a map of key-value pairs.
// Handles comma-separated values: `graph:"key1=value1,key2=value2,flag"`
// Supports quoted values with spaces: `graph:"key='value with spaces'"`
func ParseStructTag(tag string) (map[string]string, error) {
	result := make(map[string]string)

	if tag == "" {
		return result, nil
	}

	var parts []string
	var current strings.Builder
	inSingleQuote := false

	for i := 0; i < len(tag); i++ {
		char := tag[i]

		switch {
		case char == '\'':
			inSingleQuote = !inSingleQuote
			current.WriteByte(char)
		case (char == ',' || char == ' ') && !inSingleQuote:
			part := strings.TrimSpace(current.String())
			if part != "" {
				parts = append(parts, part)
			}
			current.Reset()
		default:
			current.WriteByte(char)
		}
	}
	if inSingleQuote {
		return nil, fmt.Errorf("invalid tag: unterminated quote in %q", tag)
	}
	if part := strings.TrimSpace(current.String()); part != "" {
		parts = append(parts, part)
	}

	for _, part := range parts {
		if idx := strings.Index(part, "="); idx >= 0 {
			key := strings.TrimSpace(part[:idx])
			value := strings.TrimSpace(part[idx+1:])
			if key == "" {
				return nil, fmt.Errorf("invalid tag: empty key in %q", part)
			}
			result[key] = unquoteValue(value)
		} else {
			result[part] = ""
		}
	}

	return result, nil
}

// unquoteValue removes surrounding single quotes from a value.
func unquoteValue(value string) string {
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return value[1 : len(value)-1]
	}
	return value
}

func parseGraphTag(tag string) (graphTag, error) {
	if tag == "-" {
		return graphTag{Skip: true}, nil
	}
	kvs, err := ParseStructTag(tag)
	if err != nil {
		return graphTag{}, err
	}
	var res graphTag
	for k, v := range kvs {
		switch k {
		case "field":
			if v == "" {
				return graphTag{}, fmt.Errorf("invalid tag %q: empty field name", tag)
			}
			res.Name = v
		case "backref":
			res.Backref = true
		case "owner":
			res.Owner = true
		default:
			return graphTag{}, fmt.Errorf("invalid tag %q: unknown key %q", tag, k)
		}
	}
	return res, nil
}
