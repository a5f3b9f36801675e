package parse

import (
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
)

// Keys returns the top-level keys of the JSON object in r, in order,
// skipping over the values without building nodes for them.
func Keys(r io.Reader) ([]string, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if d, ok := tok.(gojson.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", ErrParse)
	}
	var keys []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		if d, ok := tok.(gojson.Delim); ok && d == '}' {
			return keys, nil
		}
		k, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: object key %v", ErrParse, tok)
		}
		keys = append(keys, k)
		if err := skip(dec); err != nil {
			return nil, err
		}
	}
}

func skip(dec *gojson.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		if d, ok := tok.(gojson.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
		if depth == 0 {
			return nil
		}
	}
}
