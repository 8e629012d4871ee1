// Package prompts holds the versioned prompt templates of every AI feature.
// Rendering is a pure function of the feature, the clinical context and the
// feature's extra inputs.
package prompts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
)

// ErrUnknownTemplate is returned for a feature without a template.
var ErrUnknownTemplate = errors.New("no prompt template for feature")

// Extra input names used by the templates.
const (
	ExtraSymptoms     = "symptoms"
	ExtraNews2        = "news2"
	ExtraPrescription = "prescription"
	ExtraBranchStats  = "branch_stats"
	ExtraHistory      = "history"
	ExtraMessage      = "message"
)

const header = `You are a clinical decision support assistant for a chronic disease management clinic.
Role: {{.Role}}
Guidelines: WHO and national guidance for hypertension, diabetes, COPD and chronic kidney disease; NEWS2 for deterioration.
Output contract: {{.Contract}}
`

const jsonContract = "Respond with a single JSON object matching the schema below and nothing else. Use English field names exactly as shown."

const textContract = "Respond in plain text for the audience described. Do not include JSON."

// Template is an immutable prompt definition. Version is a label recorded
// in the audit log and has no runtime effect.
type Template struct {
	Feature  entities.FeatureType
	Version  string
	Role     string
	Task     string
	Schema   string
	Extras   []string
	compiled *template.Template
}

// Structured reports whether the template asks for JSON output.
func (t *Template) Structured() bool {
	return t.Schema != ""
}

// Prompt is a rendered template ready to submit.
type Prompt struct {
	Feature entities.FeatureType
	Version string
	Text    string
}

// Registry maps features to their templates.
type Registry struct {
	templates map[entities.FeatureType]*Template
}

// NewRegistry compiles the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[entities.FeatureType]*Template, len(builtins))}
	for _, def := range builtins {
		t := def
		t.compiled = template.Must(template.New(string(t.Feature)).Funcs(funcs).Parse(header + body))
		r.templates[t.Feature] = &t
	}
	return r
}

// Template returns the template registered for feature.
func (r *Registry) Template(feature entities.FeatureType) (*Template, error) {
	t, ok := r.templates[feature]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, feature)
	}
	return t, nil
}

// Render fills the template of feature. Missing extras render as N/A.
func (r *Registry) Render(feature entities.FeatureType, clinicalContext string, extras map[string]string) (*Prompt, error) {
	t, err := r.Template(feature)
	if err != nil {
		return nil, err
	}

	data := renderData{
		Role:     t.Role,
		Task:     t.Task,
		Schema:   t.Schema,
		Context:  strings.TrimSpace(clinicalContext),
		Contract: textContract,
	}
	if t.Structured() {
		data.Contract = jsonContract
	}
	if data.Context == "" {
		data.Context = "N/A"
	}
	for _, name := range t.Extras {
		value := strings.TrimSpace(extras[name])
		if value == "" {
			value = "N/A"
		}
		data.Extras = append(data.Extras, extra{Name: name, Value: value})
	}

	var b strings.Builder
	if err := t.compiled.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("render %s prompt: %w", feature, err)
	}

	return &Prompt{Feature: feature, Version: t.Version, Text: b.String()}, nil
}

// Versions returns the version label of every template, keyed by feature.
func (r *Registry) Versions() map[entities.FeatureType]string {
	out := make(map[entities.FeatureType]string, len(r.templates))
	for f, t := range r.templates {
		out[f] = t.Version
	}
	return out
}

// Features returns the registered features in a stable order.
func (r *Registry) Features() []entities.FeatureType {
	out := make([]entities.FeatureType, 0, len(r.templates))
	for f := range r.templates {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var funcs = template.FuncMap{"upper": strings.ToUpper}

type extra struct {
	Name  string
	Value string
}

type renderData struct {
	Role     string
	Task     string
	Schema   string
	Context  string
	Contract string
	Extras   []extra
}

const body = `
Task: {{.Task}}

# PATIENT CONTEXT
{{.Context}}
{{range .Extras}}
# {{.Name | upper}}
{{.Value}}
{{end}}{{if .Schema}}
# RESPONSE SCHEMA
{{.Schema}}
{{end}}`
