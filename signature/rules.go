package signature

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/gobeaver/filetype/content"
	"github.com/gobeaver/filetype/extension"
)

// ErrInvalidRule is returned when a rule file contains a rule that cannot
// be compiled.
var ErrInvalidRule = errors.New("invalid signature rule")

// Format selects the syntax of a rule file.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSONC Format = "jsonc"
)

// RuleFile is the on-disk representation of custom rules.
//
//	rules:
//	  - extension: png
//	    all:
//	      - offset: 0
//	        hex: "89504e470d0a1a0a"
//	  - extension: xml
//	    any:
//	      - offset: 0
//	        text: "<?xml"
//	      - offset: 0
//	        text: "<svg"
//	        find: true
//	        max_depth: 256
type RuleFile struct {
	Rules []RuleSpec `json:"rules" yaml:"rules"`
}

// RuleSpec describes one rule. All conditions in All must hold, and when
// Any is not empty at least one of its conditions must hold too.
type RuleSpec struct {
	Extension string          `json:"extension" yaml:"extension"`
	All       []ConditionSpec `json:"all,omitempty" yaml:"all,omitempty"`
	Any       []ConditionSpec `json:"any,omitempty" yaml:"any,omitempty"`
}

// ConditionSpec is a single CheckBytes or Find probe. Exactly one of Hex
// and Text must be set.
type ConditionSpec struct {
	Offset   int64  `json:"offset" yaml:"offset"`
	Hex      string `json:"hex,omitempty" yaml:"hex,omitempty"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	Find     bool   `json:"find,omitempty" yaml:"find,omitempty"`
	MaxDepth int    `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	Reverse  bool   `json:"reverse,omitempty" yaml:"reverse,omitempty"`
}

// Load reads and compiles a rule file.
func Load(r io.Reader, format Format) ([]Rule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	var file RuleFile
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
	case FormatJSONC:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
	default:
		return nil, fmt.Errorf("unsupported rule format %q", format)
	}

	return file.Compile()
}

// LoadFile reads a rule file, choosing the syntax from its extension:
// .yaml and .yml are YAML, anything else is JSON with comments.
func LoadFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format := FormatJSONC
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	rules, err := Load(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Compile turns the specs of f into rules, in file order.
func (f RuleFile) Compile() ([]Rule, error) {
	rules := make([]Rule, 0, len(f.Rules))
	for i, spec := range f.Rules {
		rule, err := spec.Compile()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Compile builds the Rule described by s.
func (s RuleSpec) Compile() (Rule, error) {
	ext, err := extension.Parse(s.Extension)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if len(s.All) == 0 && len(s.Any) == 0 {
		return Rule{}, fmt.Errorf("%w: %s has no conditions", ErrInvalidRule, ext)
	}

	var matchers []Matcher
	for _, c := range s.All {
		m, err := c.Compile()
		if err != nil {
			return Rule{}, err
		}
		matchers = append(matchers, m)
	}

	if len(s.Any) > 0 {
		alts := make([]Matcher, 0, len(s.Any))
		for _, c := range s.Any {
			m, err := c.Compile()
			if err != nil {
				return Rule{}, err
			}
			alts = append(alts, m)
		}
		matchers = append(matchers, Any(alts...))
	}

	if len(matchers) == 1 {
		return Rule{Extension: ext, Matcher: matchers[0]}, nil
	}
	return Rule{Extension: ext, Matcher: All(matchers...)}, nil
}

// Compile builds the Matcher described by c.
func (c ConditionSpec) Compile() (Matcher, error) {
	var pattern content.Pattern
	switch {
	case c.Hex != "" && c.Text != "":
		return nil, fmt.Errorf("%w: hex and text are mutually exclusive", ErrInvalidRule)
	case c.Hex != "":
		raw, err := hex.DecodeString(strings.ReplaceAll(c.Hex, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: hex %q: %v", ErrInvalidRule, c.Hex, err)
		}
		pattern = content.Bytes(raw...)
	case c.Text != "":
		pattern = content.Text(c.Text)
	default:
		return nil, fmt.Errorf("%w: condition at offset %d has no pattern", ErrInvalidRule, c.Offset)
	}

	if !c.Find {
		if c.MaxDepth != 0 || c.Reverse {
			return nil, fmt.Errorf("%w: max_depth and reverse need find", ErrInvalidRule)
		}
		return At(c.Offset, pattern), nil
	}

	if c.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: negative max_depth %d", ErrInvalidRule, c.MaxDepth)
	}
	var opts []content.FindOption
	if c.MaxDepth > 0 {
		opts = append(opts, content.MaxDepth(c.MaxDepth))
	}
	if c.Reverse {
		opts = append(opts, content.Reverse())
	}
	return Near(c.Offset, pattern, opts...), nil
}
