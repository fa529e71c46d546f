// Package modelgen turns plain-language requests into SQL model files. A
// request is classified by pattern into one of the built-in templates,
// rendered, written under the models directory, and registered in the
// layer's schema.yml.
package modelgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"petalbrew/pkg/errors"
)

// Layer is a models/ subdirectory.
type Layer string

const (
	LayerStaging      Layer = "staging"
	LayerIntermediate Layer = "intermediate"
	LayerMarts        Layer = "marts"
)

// layerPrefixes are the allowed model name prefixes per layer.
var layerPrefixes = map[Layer][]string{
	LayerStaging:      {"stg_"},
	LayerIntermediate: {"int_"},
	LayerMarts:        {"fct_", "dim_"},
}

// Model is one generated or discovered SQL model.
type Model struct {
	Name            string
	Layer           Layer
	Path            string
	Materialization string
	SizeBytes       int64
}

var (
	dailyPattern    = regexp.MustCompile(`(?i)\b(daily|by day|per day|revenue)\b`)
	customerPattern = regexp.MustCompile(`(?i)\bcustomer`)
	stagingPattern  = regexp.MustCompile(`(?i)\bstaging\s+(?:for\s+|of\s+)?([a-z_]+)`)
	namePattern     = regexp.MustCompile(`[^a-z0-9_]+`)
)

// Generator writes model files under a models directory root.
type Generator struct {
	root string
}

// NewGenerator creates a Generator rooted at the models directory.
func NewGenerator(root string) *Generator {
	return &Generator{root: root}
}

// Classification holds the template choice for a request.
type Classification struct {
	Name      string
	Layer     Layer
	Source    string
	KeyColumn string

	template string
}

// Classify picks a template for a request. Patterns are checked from most
// to least specific; anything unrecognized becomes an exploration view.
func Classify(request string) Classification {
	if m := stagingPattern.FindStringSubmatch(request); m != nil {
		// Source names stay plural; the raw tables are plural.
		source := m[1]
		return Classification{
			Name:      "stg_" + source,
			Layer:     LayerStaging,
			Source:    source,
			KeyColumn: keyColumn(source),
			template:  stagingTemplate,
		}
	}
	if customerPattern.MatchString(request) {
		return Classification{
			Name:     "fct_" + slug(request),
			Layer:    LayerMarts,
			template: customerMartTemplate,
		}
	}
	if dailyPattern.MatchString(request) {
		return Classification{
			Name:     "fct_" + slug(request),
			Layer:    LayerMarts,
			template: dailyMetricTemplate,
		}
	}
	return Classification{
		Name:     "int_" + slug(request),
		Layer:    LayerIntermediate,
		template: explorationTemplate,
	}
}

// keyColumn derives a raw table's key column from its plural name:
// flowers -> flower_id, deliveries -> delivery_id, supplies -> supply_id.
func keyColumn(source string) string {
	singular := source
	switch {
	case strings.HasSuffix(singular, "ies"):
		singular = strings.TrimSuffix(singular, "ies") + "y"
	case strings.HasSuffix(singular, "s") && !strings.HasSuffix(singular, "ss"):
		singular = strings.TrimSuffix(singular, "s")
	}
	return singular + "_id"
}

// slug reduces a request to a usable model name fragment.
func slug(request string) string {
	s := strings.ToLower(strings.TrimSpace(request))
	s = namePattern.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 40 {
		s = s[:40]
		s = strings.Trim(s, "_")
	}
	if s == "" {
		s = "model"
	}
	return s
}

// Generate renders the model for a request and writes it to disk. An
// existing model file is a conflict unless force is set.
func (g *Generator) Generate(request string, force bool) (*Model, error) {
	c := Classify(request)

	dir := filepath.Join(g.root, string(c.Layer))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create layer directory: %w", err)
	}

	path := filepath.Join(dir, c.Name+".sql")
	if _, err := os.Stat(path); err == nil && !force {
		return nil, errors.New(errors.ErrCodeModelConflict,
			fmt.Sprintf("model %s already exists", c.Name)).
			WithContext("path", path).
			WithSuggestions("Re-run with --force to overwrite")
	}

	tmpl, err := template.New(c.Name).Parse(c.template)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var sb strings.Builder
	err = tmpl.Execute(&sb, map[string]string{
		"Description": request,
		"Source":      c.Source,
		"KeyColumn":   c.KeyColumn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	sql := sb.String()

	if err := Validate(c.Name, c.Layer, sql); err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, []byte(sql), 0644); err != nil {
		return nil, fmt.Errorf("failed to write model file: %w", err)
	}

	if err := g.registerInSchema(c.Layer, c.Name, request); err != nil {
		return nil, err
	}

	info, _ := os.Stat(path)
	model := &Model{
		Name:            c.Name,
		Layer:           c.Layer,
		Path:            path,
		Materialization: materializationOf(sql),
	}
	if info != nil {
		model.SizeBytes = info.Size()
	}
	return model, nil
}

// Validate applies the structural checks every model must pass.
func Validate(name string, layer Layer, sql string) error {
	lower := strings.ToLower(sql)
	if !strings.Contains(lower, "select") {
		return errors.New(errors.ErrCodeModelInvalid, "model has no select statement").
			WithContext("model", name)
	}
	if !strings.Contains(sql, "config(") {
		return errors.New(errors.ErrCodeModelInvalid, "model has no config block").
			WithContext("model", name)
	}

	prefixes, ok := layerPrefixes[layer]
	if !ok {
		return errors.New(errors.ErrCodeModelInvalid, fmt.Sprintf("unknown layer %q", layer))
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return nil
		}
	}
	return errors.New(errors.ErrCodeModelInvalid,
		fmt.Sprintf("model %s does not match layer %s naming (want prefix %s)",
			name, layer, strings.Join(prefixes, " or "))).
		WithContext("model", name)
}

func materializationOf(sql string) string {
	if strings.Contains(sql, "materialized='table'") {
		return "table"
	}
	if strings.Contains(sql, "materialized='view'") {
		return "view"
	}
	return "view"
}

// schemaFile mirrors the schema.yml layout the analytics project uses.
type schemaFile struct {
	Version int           `yaml:"version"`
	Models  []schemaModel `yaml:"models"`
}

type schemaModel struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// registerInSchema adds the model to the layer's schema.yml, creating the
// file on first use. Re-generating an existing model keeps its entry.
func (g *Generator) registerInSchema(layer Layer, name, description string) error {
	path := filepath.Join(g.root, string(layer), "schema.yml")

	schema := schemaFile{Version: 2}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	for _, m := range schema.Models {
		if m.Name == name {
			return nil
		}
	}
	schema.Models = append(schema.Models, schemaModel{Name: name, Description: description})

	data, err := yaml.Marshal(&schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// List walks the models directory and reports every SQL model found.
func (g *Generator) List() ([]Model, error) {
	var out []Model
	for _, layer := range []Layer{LayerStaging, LayerIntermediate, LayerMarts} {
		dir := filepath.Join(g.root, string(layer))
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			info, err := entry.Info()
			if err != nil {
				return nil, err
			}
			out = append(out, Model{
				Name:            strings.TrimSuffix(entry.Name(), ".sql"),
				Layer:           layer,
				Path:            path,
				Materialization: materializationOf(string(data)),
				SizeBytes:       info.Size(),
			})
		}
	}
	return out, nil
}
