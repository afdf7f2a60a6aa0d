package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode renders a schema document in the given format. JSON is indented
// with two spaces; YAML keeps the JSON key order.
func Encode(doc any, format string) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	switch format {
	case "", FormatJSON:
		return append(data, '\n'), nil
	case FormatYAML:
		node, err := yamlNode(data)
		if err != nil {
			return nil, fmt.Errorf("convert to yaml: %w", err)
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format: %q (expected %q or %q)", format, FormatJSON, FormatYAML)
	}
}

// FileName returns the output file name for a root type:
// "<Type>.schema.json" or "<Type>.schema.yaml".
func FileName(typeName, format string) string {
	if format == "" {
		format = FormatJSON
	}
	return fileNameReplacer.Replace(typeName) + ".schema." + format
}

var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	".", "_",
	"[", "_",
	"]", "",
	",", "_",
	" ", "",
	"*", "Ptr",
)

// yamlNode converts a JSON document to a YAML node tree, keeping key order.
func yamlNode(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	node, err := readNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after document")
	}
	return node, nil
}

func readNode(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			for dec.More() {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				value, err := readNode(dec)
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, scalar("!!str", key.(string)), value)
			}
			_, err := dec.Token() // '}'
			return node, err
		case '[':
			node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			for dec.More() {
				item, err := readNode(dec)
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, item)
			}
			_, err := dec.Token() // ']'
			return node, err
		}
		return nil, fmt.Errorf("unexpected delimiter %v", v)
	case string:
		return scalar("!!str", v), nil
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return scalar("!!int", v.String()), nil
		}
		return scalar("!!float", v.String()), nil
	case bool:
		if v {
			return scalar("!!bool", "true"), nil
		}
		return scalar("!!bool", "false"), nil
	case nil:
		return scalar("!!null", "null"), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
