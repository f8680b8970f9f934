// Package document loads JSON and YAML text into the shared value tree
// model. Objects decode into insertion-ordered maps so downstream
// traversals observe keys in document order; numbers decode as int64 when
// integral and float64 otherwise.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformed indicates input that does not parse as the declared format.
var ErrMalformed = errors.New("document: malformed input")

// Format identifies the wire format of an input document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat guesses the format from a file extension; stdin and
// unknown extensions default to JSON.
func DetectFormat(path string) Format {
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and decodes the document at path; "" or "-" reads stdin.
func Load(path string, format Format) (any, error) {
	r, closer, err := open(path)
	if err != nil {
		return nil, err
	}
	defer closer()
	return Decode(r, format)
}

// Decode parses a document from r in the given format.
func Decode(r io.Reader, format Format) (any, error) {
	switch format {
	case FormatYAML:
		return DecodeYAML(r)
	default:
		return DecodeJSON(r)
	}
}

// ReadText reads the raw text of path; "" or "-" reads stdin.
func ReadText(path string) (string, error) {
	r, closer, err := open(path)
	if err != nil {
		return "", err
	}
	defer closer()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func open(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("document: open %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
