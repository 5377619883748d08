package buildconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DuplicatePolicy controls how repeated page names or alias tokens are handled.
type DuplicatePolicy int

const (
	// DuplicatesReject fails loading with ErrDuplicateKey.
	DuplicatesReject DuplicatePolicy = iota
	// DuplicatesLastWins keeps the last declaration and logs a warning.
	DuplicatesLastWins
)

// UnknownKeyPolicy controls how keys outside the descriptor schema are handled.
type UnknownKeyPolicy int

const (
	// UnknownKeysReject fails loading with ErrUnknownField.
	UnknownKeysReject UnknownKeyPolicy = iota
	// UnknownKeysIgnore drops unknown keys silently.
	UnknownKeysIgnore
)

type LoadOptions struct {
	Duplicates  DuplicatePolicy
	UnknownKeys UnknownKeyPolicy
}

// ConfigFileNames are searched, in order, by FindConfig.
var ConfigFileNames = []string{"pagebundle.yaml", "pagebundle.yml", "pagebundle.json"}

// keySchema describes the shape of a mapping in the descriptor. A schema with
// keyed set is a user-keyed mapping (page names, alias tokens) whose values
// follow entries; otherwise only the keys in fields are accepted.
type keySchema struct {
	fields  map[string]*keySchema
	keyed   bool
	entries *keySchema
}

var descriptorSchema = &keySchema{fields: map[string]*keySchema{
	"productionSourceMap": nil,
	"lintOnSave":          nil,
	"outputDir":           nil,
	"publicPath":          nil,
	"pages": {keyed: true, entries: &keySchema{fields: map[string]*keySchema{
		"entry":    nil,
		"template": nil,
		"filename": nil,
		"title":    nil,
	}}},
	"webpackOverrides": {fields: map[string]*keySchema{
		"resolve": {fields: map[string]*keySchema{
			"extensions": nil,
			"alias":      {keyed: true},
		}},
	}},
}}

// LoadFile reads and parses the descriptor at path.
func LoadFile(path string, opts LoadOptions) (RawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	raw, err := Parse(data, opts)
	if err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", path, err)
	}

	return raw, nil
}

// Parse decodes a YAML or JSON descriptor. Duplicate and unknown keys are
// checked against the source document before decoding so errors carry the
// original line numbers.
func Parse(data []byte, opts LoadOptions) (RawConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}

	// empty document
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return RawConfig{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return RawConfig{}, fmt.Errorf("failed to parse config: line %d: top level must be a mapping", root.Line)
	}

	index := nodeIndex{}
	if err := checkMapping(root, "", descriptorSchema, opts, index); err != nil {
		return RawConfig{}, err
	}

	var raw RawConfig
	if err := root.Decode(&raw); err != nil {
		return RawConfig{}, fmt.Errorf("failed to decode config: %w", index.typeError(err))
	}

	return raw, nil
}

func checkMapping(node *yaml.Node, field string, schema *keySchema, opts LoadOptions, index nodeIndex) error {
	if schema == nil || node.Kind != yaml.MappingNode {
		return nil
	}

	if err := dedupeMapping(node, field, opts.Duplicates); err != nil {
		return err
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		name := joinField(field, key.Value)

		child := schema.entries
		if !schema.keyed {
			var ok bool
			child, ok = schema.fields[key.Value]
			if !ok {
				if opts.UnknownKeys == UnknownKeysReject {
					return &FieldError{Err: ErrUnknownField, Field: name, Value: key.Value, Line: key.Line}
				}
				log.Debug().Str("field", name).Int("line", key.Line).Msg("ignoring unknown config key")
				continue
			}
		}

		index[value.Line] = indexedField{field: name, node: value}

		if err := checkMapping(value, name, child, opts, index); err != nil {
			return err
		}
	}

	return nil
}

// dedupeMapping removes repeated keys from a mapping node in place. Under
// DuplicatesLastWins the later value replaces the earlier one at the position
// of the first declaration.
func dedupeMapping(node *yaml.Node, field string, policy DuplicatePolicy) error {
	seen := make(map[string]int, len(node.Content)/2)
	content := make([]*yaml.Node, 0, len(node.Content))

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		if prev, ok := seen[key.Value]; ok {
			name := joinField(field, key.Value)
			if policy == DuplicatesReject {
				return &FieldError{Err: ErrDuplicateKey, Field: name, Value: key.Value, Line: key.Line}
			}
			log.Warn().
				Str("field", name).
				Int("line", key.Line).
				Int("previous_line", content[prev].Line).
				Msg("duplicate config key, last declaration wins")
			content[prev+1] = value
			continue
		}

		seen[key.Value] = len(content)
		content = append(content, key, value)
	}

	node.Content = content
	return nil
}

// nodeIndex maps source lines to the innermost field whose value starts there.
type nodeIndex map[int]indexedField

type indexedField struct {
	field string
	node  *yaml.Node
}

// lookup returns the field at line, or the closest one declared above it for
// values that span several lines.
func (ix nodeIndex) lookup(line int) (indexedField, bool) {
	for l := line; l > 0; l-- {
		if f, ok := ix[l]; ok {
			return f, true
		}
	}
	return indexedField{}, false
}

// typeError converts the first yaml type mismatch into a FieldError naming the
// field and the supplied value.
func (ix nodeIndex) typeError(err error) error {
	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) || len(typeErr.Errors) == 0 {
		return err
	}

	var line int
	if _, scanErr := fmt.Sscanf(typeErr.Errors[0], "line %d:", &line); scanErr != nil {
		return err
	}

	ref, ok := ix.lookup(line)
	if !ok {
		return err
	}

	value := ref.node.Value
	if ref.node.Kind != yaml.ScalarNode {
		value = strings.TrimPrefix(ref.node.ShortTag(), "!!")
	}

	return &FieldError{Err: ErrInvalidType, Field: ref.field, Value: value, Line: line}
}

func joinField(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// FindConfig walks up from dir looking for one of ConfigFileNames. It returns
// the descriptor path and the directory holding it, which is the project root.
func FindConfig(dir string) (string, string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve search directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err == nil && info.Mode().IsRegular() {
				return candidate, dir, nil
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", "", fmt.Errorf("failed to stat %s: %w", candidate, err)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", ErrConfigNotFound
		}
		dir = parent
	}
}
