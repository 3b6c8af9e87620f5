// Package render turns an identity's attributes into a SCIM JSON document
// using a text/template file.
//
// Templates reference attributes through these functions:
//
//	{{attr "mail"}}   first value as a JSON string, error if absent
//	{{attrs "mail"}}  all values as a JSON array
//	{{has "mail"}}    whether the attribute has at least one value
//	{{json .x}}       any value encoded as JSON
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

type Template struct {
	tmpl *template.Template
}

// placeholders so the parser knows the function names; Render rebinds them
var parseFuncs = template.FuncMap{
	"attr":  func(string) (string, error) { return "", nil },
	"attrs": func(string) (string, error) { return "", nil },
	"has":   func(string) bool { return false },
	"json":  encode,
}

func New(name, text string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Funcs(parseFuncs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return &Template{tmpl: tmpl}, nil
}

// Load reads and parses a template file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return New(filepath.Base(path), string(data))
}

// Render executes the template against one identity's attributes and
// checks the result is a well-formed JSON document.
func (t *Template) Render(attributes map[string][]string) (string, error) {
	tmpl, err := t.tmpl.Clone()
	if err != nil {
		return "", fmt.Errorf("failed to clone template: %w", err)
	}
	tmpl.Funcs(bindFuncs(attributes))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, attributes); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	if !json.Valid(buf.Bytes()) {
		return "", fmt.Errorf("rendered document is not valid JSON")
	}
	return buf.String(), nil
}

func bindFuncs(attributes map[string][]string) template.FuncMap {
	return template.FuncMap{
		"attr": func(name string) (string, error) {
			values := attributes[name]
			if len(values) == 0 {
				return "", fmt.Errorf("attribute %q has no values", name)
			}
			return encode(values[0])
		},
		"attrs": func(name string) (string, error) {
			values := attributes[name]
			if values == nil {
				values = []string{}
			}
			return encode(values)
		},
		"has": func(name string) bool {
			return len(attributes[name]) > 0
		},
	}
}

func encode(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
