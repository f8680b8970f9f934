package document

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/yzaremba/rt/internal/value"
)

// DecodeYAML decodes a single YAML document from r into the shared value
// tree. Mappings keep their source key order; multi-document streams are
// rejected.
func DecodeYAML(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch len(file.Docs) {
	case 0:
		return nil, nil
	case 1:
		if file.Docs[0].Body == nil {
			return nil, nil
		}
		return nodeToValue(file.Docs[0].Body)
	default:
		return nil, fmt.Errorf("%w: expected a single document, got %d", ErrMalformed, len(file.Docs))
	}
}

func nodeToValue(node ast.Node) (any, error) {
	switch n := node.(type) {
	case *ast.NullNode:
		return nil, nil
	case *ast.BoolNode:
		return n.Value, nil
	case *ast.IntegerNode:
		switch v := n.Value.(type) {
		case int64:
			return v, nil
		case uint64:
			return int64(v), nil
		default:
			return nil, fmt.Errorf("%w: unexpected integer value type %T", ErrMalformed, n.Value)
		}
	case *ast.FloatNode:
		return n.Value, nil
	case *ast.StringNode:
		return n.Value, nil
	case *ast.LiteralNode:
		return n.Value.Value, nil
	case *ast.MappingNode:
		obj := value.NewObject()
		for _, pair := range n.Values {
			if err := appendPair(obj, pair); err != nil {
				return nil, err
			}
		}
		return obj, nil
	case *ast.MappingValueNode:
		// A single-pair mapping parses as the pair itself.
		obj := value.NewObject()
		if err := appendPair(obj, n); err != nil {
			return nil, err
		}
		return obj, nil
	case *ast.SequenceNode:
		arr := make([]any, 0, len(n.Values))
		for _, item := range n.Values {
			v, err := nodeToValue(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("%w: unsupported node %T", ErrMalformed, node)
	}
}

func appendPair(obj *value.Object, pair *ast.MappingValueNode) error {
	keyNode, ok := pair.Key.(*ast.StringNode)
	if !ok {
		return fmt.Errorf("%w: mapping key must be a string, got %T", ErrMalformed, pair.Key)
	}
	v, err := nodeToValue(pair.Value)
	if err != nil {
		return err
	}
	obj.Set(keyNode.Value, v)
	return nil
}
