package bundle

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Render produces the canonical textual form of a document: a comment header
// drawn from the document's own metadata followed by YAML with lexicographic
// key ordering at every mapping level. Because every input comes from the
// document itself, rendering the same document twice yields identical bytes.
func Render(document *Document) (string, error) {
	body, err := renderCanonical(document)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("# Asset bundle configuration\n")
	if document.Bundle != nil {
		b.WriteString("# Bundle: " + document.Bundle.Name + "\n")
	}

	b.WriteString("# Source workflow: " + document.Metadata.SourceWorkflowID + "\n")
	b.WriteString("# Generated at: " + document.Metadata.GeneratedAt.Format("2006-01-02T15:04:05Z07:00") + "\n")
	b.WriteString("# Generator: " + document.Metadata.GeneratorVersion + "\n\n")
	b.WriteString(body)

	return b.String(), nil
}

// RenderResources emits only the resources section of a document, for
// splicing into an existing bundle configuration.
func RenderResources(document *Document) (string, error) {
	body, err := renderCanonical(struct {
		Resources Resources `yaml:"resources" json:"resources"`
	}{Resources: document.Resources})
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("# Asset bundle resources\n")
	b.WriteString("# Source workflow: " + document.Metadata.SourceWorkflowID + "\n")
	b.WriteString("# Generated at: " + document.Metadata.GeneratedAt.Format("2006-01-02T15:04:05Z07:00") + "\n\n")
	b.WriteString(body)

	return b.String(), nil
}

// Parse accepts exactly the grammar Render produces and reconstructs the
// document. Malformed input yields a *ParseError carrying the source
// location; no partially populated document is ever returned.
func Parse(text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Line: 1, Column: 1, Message: "empty document"}
	}

	var document Document

	if err := yaml.Unmarshal([]byte(text), &document); err != nil {
		return nil, asParseError(err)
	}

	return &document, nil
}

// renderCanonical marshals v, rebuilds the result as an ordered mapping tree
// with sorted keys, and marshals that tree. Struct field order and map
// iteration order therefore never leak into the output.
func renderCanonical(v any) (string, error) {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return "", fmt.Errorf("reload document tree: %w", err)
	}

	out, err := yaml.Marshal(canonicalize(tree))
	if err != nil {
		return "", fmt.Errorf("marshal canonical tree: %w", err)
	}

	return string(out), nil
}

func canonicalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		slice := make(yaml.MapSlice, 0, len(t))
		for _, key := range keys {
			slice = append(slice, yaml.MapItem{Key: key, Value: canonicalize(t[key])})
		}

		return slice
	case map[any]any:
		keys := make([]string, 0, len(t))
		values := make(map[string]any, len(t))

		for key, value := range t {
			s := fmt.Sprint(key)
			keys = append(keys, s)
			values[s] = value
		}

		sort.Strings(keys)

		slice := make(yaml.MapSlice, 0, len(t))
		for _, key := range keys {
			slice = append(slice, yaml.MapItem{Key: key, Value: canonicalize(values[key])})
		}

		return slice
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = canonicalize(item)
		}

		return items
	default:
		return v
	}
}

// goccy/go-yaml prefixes syntax errors with the token position as "[line:column]".
var yamlPositionPattern = regexp.MustCompile(`\[(\d+):(\d+)\]`)

func asParseError(err error) *ParseError {
	parseErr := &ParseError{Line: 1, Column: 1, Message: err.Error()}

	if match := yamlPositionPattern.FindStringSubmatch(err.Error()); match != nil {
		parseErr.Line, _ = strconv.Atoi(match[1])
		parseErr.Column, _ = strconv.Atoi(match[2])
	}

	return parseErr
}
