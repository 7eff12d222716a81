package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ScorePath is where the scoring expression is written.
const ScorePath = "sort[0]._script.script"

// ErrPathNotFound is wrapped by PathError.
var ErrPathNotFound = errors.New("template path not found")

// PathError reports a template path that has to exist before injection.
type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("template has no object at %s", e.Path)
}

func (e *PathError) Unwrap() error {
	return ErrPathNotFound
}

// Template is a search request body read from a JSON file. The script
// objects it exposes for injection are resolved once, at parse time.
type Template struct {
	doc         map[string]any
	scoreScript map[string]any
}

// LoadTemplate reads and parses the template at path.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query template: %w", err)
	}
	return ParseTemplate(data)
}

// ParseTemplate decodes a JSON object. Numbers are kept as json.Number so
// the body is sent back unchanged.
func ParseTemplate(data []byte) (*Template, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode query template: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode query template: top level must be an object")
	}

	t := &Template{doc: doc}
	if sorts, ok := doc["sort"].([]any); ok && len(sorts) > 0 {
		t.scoreScript = lookup(sorts[0], "_script", "script")
	}
	return t, nil
}

// HasScoreScript reports whether ScorePath exists.
func (t *Template) HasScoreScript() bool {
	return t.scoreScript != nil
}

// InjectScore stores expr as the inline score script. The expression is
// opaque and is written verbatim.
func (t *Template) InjectScore(expr string) error {
	if t.scoreScript == nil {
		return &PathError{Path: ScorePath}
	}
	t.scoreScript["inline"] = expr
	return nil
}

// InjectField stores expr as the inline script of script_fields.<name>.
func (t *Template) InjectField(name, expr string) error {
	target := lookup(t.doc, "script_fields", name, "script")
	if target == nil {
		return &PathError{Path: fmt.Sprintf("script_fields.%s.script", name)}
	}
	target["inline"] = expr
	return nil
}

// Body marshals the current state of the template. Painless operators such
// as && and < are left unescaped.
func (t *Template) Body() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t.doc); err != nil {
		return nil, fmt.Errorf("marshal query body: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func lookup(node any, keys ...string) map[string]any {
	cur, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	for _, k := range keys {
		if cur, ok = cur[k].(map[string]any); !ok {
			return nil
		}
	}
	return cur
}
