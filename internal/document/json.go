package document

import (
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/yzaremba/rt/internal/value"
)

// DecodeJSON decodes a single JSON document from r, preserving object key
// order. Trailing non-whitespace content is rejected.
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	v, err := decodeValue(dec, tok)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("%w: unexpected delimiter %v", ErrMalformed, t)
		}
	case json.Number:
		return normalizeNumber(t), nil
	default:
		// string, bool or nil.
		return tok, nil
	}
}

func decodeObject(dec *json.Decoder) (*value.Object, error) {
	obj := value.NewObject()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return obj, nil
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: object key is not a string", ErrMalformed)
		}

		valueTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		v, err := decodeValue(dec, valueTok)
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return arr, nil
		}
		v, err := decodeValue(dec, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// normalizeNumber keeps integral literals as int64 and everything else as
// float64, mirroring how the type names distinguish int from float.
func normalizeNumber(n json.Number) any {
	if !strings.ContainsAny(string(n), ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	f, err := n.Float64()
	if err != nil {
		return string(n)
	}
	return f
}
