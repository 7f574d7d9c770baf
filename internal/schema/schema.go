// Package schema validates normalized spreadsheet records against declarative
// per-kind schemas. All violations of a record are reported together.
package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schemas.yaml
var schemasYAML []byte

// Kind names a record schema.
type Kind string

const (
	SubjectInfo     Kind = "subject_info"
	Topic           Kind = "topic"
	Concept         Kind = "concept"
	LessonContent   Kind = "lesson_content"
	ConceptQuestion Kind = "concept_question"
	ExamInfo        Kind = "exam_info"
	PastQuestion    Kind = "past_question"
)

// Violation is one failed constraint on one field.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// Set is a compiled collection of schemas.
type Set struct {
	schemas map[Kind]*compiled
}

type compiled struct {
	schema *gojsonschema.Schema
	// messages maps field, then error type (or "default"), to text.
	messages map[string]map[string]string
}

// Load compiles the built-in schemas.
func Load() (*Set, error) {
	return Parse(schemasYAML)
}

// Parse compiles a YAML document whose top-level keys are kinds and whose
// values are JSON Schema objects.
func Parse(data []byte) (*Set, error) {
	var docs map[string]map[string]any
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode schemas: %w", err)
	}

	set := &Set{schemas: make(map[Kind]*compiled, len(docs))}
	for name, doc := range docs {
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", name, err)
		}
		set.schemas[Kind(name)] = &compiled{schema: s, messages: messagesOf(doc)}
	}
	return set, nil
}

func messagesOf(doc map[string]any) map[string]map[string]string {
	out := make(map[string]map[string]string)
	props, _ := doc["properties"].(map[string]any)
	for field, raw := range props {
		prop, _ := raw.(map[string]any)
		msgs, _ := prop["x-messages"].(map[string]any)
		if len(msgs) == 0 {
			continue
		}
		out[field] = make(map[string]string, len(msgs))
		for k, v := range msgs {
			out[field][k] = fmt.Sprint(v)
		}
	}
	return out
}

// Validate checks fields against the schema for kind. It returns every
// violation sorted by field; a nil slice means the record is valid.
func (s *Set) Validate(kind Kind, fields map[string]any) ([]Violation, error) {
	c, ok := s.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown schema kind %q", kind)
	}

	res, err := c.schema.Validate(gojsonschema.NewGoLoader(fields))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", kind, err)
	}
	if res.Valid() {
		return nil, nil
	}

	seen := make(map[Violation]bool)
	var out []Violation
	for _, e := range res.Errors() {
		field := e.Field()
		if e.Type() == "required" {
			if p, ok := e.Details()["property"].(string); ok {
				field = p
			}
		}
		v := Violation{Field: field, Message: c.message(field, e)}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}

func (c *compiled) message(field string, e gojsonschema.ResultError) string {
	msgs := c.messages[field]
	if m, ok := msgs[e.Type()]; ok {
		return m
	}
	if m, ok := msgs["default"]; ok {
		return m
	}
	return e.Description()
}

var builtin = sync.OnceValues(Load)

// Validate checks fields against the built-in schema for kind.
func Validate(kind Kind, fields map[string]any) ([]Violation, error) {
	set, err := builtin()
	if err != nil {
		return nil, err
	}
	return set.Validate(kind, fields)
}
