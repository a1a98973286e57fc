// Package intent defines the fixed intent vocabulary used by tenant policies.
package intent

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the closed set of intent labels a tenant policy may reference.
type Vocabulary struct {
	labels map[string]struct{}
}

// Default returns the built-in intent vocabulary.
func Default() Vocabulary {
	return New([]string{
		"order_status",
		"shipping",
		"refund_request",
		"cancellation",
		"complaint",
		"product_question",
		"pricing",
		"greeting",
		"smalltalk",
		"legal",
		"other",
	})
}

// New builds a vocabulary from a list of labels.
func New(labels []string) Vocabulary {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return Vocabulary{labels: set}
}

type vocabFile struct {
	Intents []string `yaml:"intents"`
}

// LoadFile reads a vocabulary from a YAML file of the form `intents: [...]`.
func LoadFile(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read intent vocabulary: %w", err)
	}

	var f vocabFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Vocabulary{}, fmt.Errorf("parse intent vocabulary: %w", err)
	}
	if len(f.Intents) == 0 {
		return Vocabulary{}, fmt.Errorf("intent vocabulary %s is empty", path)
	}

	return New(f.Intents), nil
}

// Contains reports whether the label belongs to the vocabulary.
func (v Vocabulary) Contains(label string) bool {
	_, ok := v.labels[label]
	return ok
}

// Validate rejects labels outside the vocabulary.
func (v Vocabulary) Validate(labels []string) error {
	for _, l := range labels {
		if !v.Contains(l) {
			return fmt.Errorf("unknown intent label %q", l)
		}
	}
	return nil
}

// Labels returns the vocabulary labels in sorted order.
func (v Vocabulary) Labels() []string {
	out := make([]string, 0, len(v.labels))
	for l := range v.labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
