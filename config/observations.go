package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// LoadObservations reads a YAML mapping from addresses to values. Keys are
// slash-separated addresses ("0/a/flip"); nested mappings extend the
// address of their parent key. Sequences become tuples.
//
//	0/coin/flip: true
//	model:
//	  x/gaussian: 1.5
func LoadObservations(path string) (*trie.Persistent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	obs, err := ParseObservations(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

// ParseObservations is LoadObservations on an in-memory document.
func ParseObservations(data []byte) (*trie.Persistent, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse observations: %w", err)
	}
	obs := trie.Empty()
	if len(doc.Content) == 0 {
		return obs, nil
	}
	return addObservations(obs, trie.Address{}, doc.Content[0])
}

func addObservations(obs *trie.Persistent, prefix trie.Address, node *yaml.Node) (*trie.Persistent, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: observations must be a mapping from addresses to values", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		addr, err := trie.ParseAddress(key.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", key.Line, err)
		}
		addr = prefix.Concat(addr)

		if value.Kind == yaml.MappingNode {
			if obs, err = addObservations(obs, addr, value); err != nil {
				return nil, err
			}
			continue
		}
		v, err := observedValue(value)
		if err != nil {
			return nil, err
		}
		obs = obs.WithAt(addr, v)
	}
	return obs, nil
}

func observedValue(node *yaml.Node) (object.Object, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw any
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		v, ok := object.FromNative(raw)
		if !ok {
			return nil, fmt.Errorf("line %d: unsupported value %q", node.Line, node.Value)
		}
		return v, nil
	case yaml.SequenceNode:
		items := make([]object.Object, len(node.Content))
		for i, item := range node.Content {
			v, err := observedValue(item)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return &object.Tuple{Elements: items}, nil
	}
	return nil, fmt.Errorf("line %d: unsupported observation value", node.Line)
}
