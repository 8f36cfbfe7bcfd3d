package catalog

import (
	"fmt"
	"os"
	"slices"

	"github.com/flanksource/commons/logger"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"sigs.k8s.io/yaml"

	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/schema/openapi"
	"github.com/flanksource/reports/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var log = logger.GetLogger("catalog")

var configValidator = openapi.MustValidator(&models.ReportConfig{})

// Entity is a named group of catalog fields.
type Entity struct {
	Type   string               `json:"type"`
	Label  string               `json:"label"`
	Fields []models.FieldConfig `json:"fields"`
}

// AvailableField is a catalog entry addressed by its composite key.
type AvailableField struct {
	Value      string         `json:"value"`
	Label      string         `json:"label"`
	DataType   types.DataType `json:"dataType"`
	EntityType string         `json:"entityType"`
	Field      string         `json:"field"`
}

// Catalog describes which fields exist per entity type and which entity
// types each report type carries.
type Catalog struct {
	config    models.ReportConfig
	entities  []Entity
	available []AvailableField
	byKey     map[string]AvailableField
}

// New builds a catalog from a host supplied config.
func New(config models.ReportConfig) (*Catalog, error) {
	return newCatalog(config, entityOrder(config))
}

func newCatalog(config models.ReportConfig, order []string) (*Catalog, error) {
	c := &Catalog{config: config, byKey: map[string]AvailableField{}}

	for _, entityType := range order {
		fields := config.FieldsByEntity[entityType]
		seen := map[string]bool{}
		for _, f := range fields {
			if seen[f.Value] {
				return nil, api.Errorf(api.EINVALID, "duplicate field %q in entity %q", f.Value, entityType)
			}
			seen[f.Value] = true
		}

		entity := Entity{
			Type:   entityType,
			Label:  lo.CoalesceOrEmpty(config.EntityLabels[entityType], entityType),
			Fields: fields,
		}
		c.entities = append(c.entities, entity)

		for _, f := range fields {
			af := AvailableField{
				Value:      types.ColumnKey(entityType, f.Value),
				Label:      fmt.Sprintf("%s (%s)", f.Label, entity.Label),
				DataType:   f.DataType,
				EntityType: entityType,
				Field:      f.Value,
			}
			c.available = append(c.available, af)
			if _, exists := c.byKey[af.Value]; exists {
				log.Warnf("composite key %s is ambiguous, keeping the first entry", af.Value)
				continue
			}
			c.byKey[af.Value] = af
		}
	}

	return c, nil
}

// entityOrder lists entity types by first appearance in the report type
// mapping (report types sorted by name), then the remaining ones sorted.
func entityOrder(config models.ReportConfig) []string {
	var order []string
	reportTypes := lo.Keys(config.ReportTypeEntities)
	slices.Sort(reportTypes)
	for _, reportType := range reportTypes {
		for _, entityType := range config.ReportTypeEntities[reportType] {
			if _, ok := config.FieldsByEntity[entityType]; ok && !lo.Contains(order, entityType) {
				order = append(order, entityType)
			}
		}
	}

	rest := lo.Filter(lo.Keys(config.FieldsByEntity), func(e string, _ int) bool { return !lo.Contains(order, e) })
	slices.Sort(rest)
	return append(order, rest...)
}

// Parse reads a YAML or JSON catalog and validates it.
func Parse(data []byte) (*Catalog, error) {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, api.Wrap(api.EINVALID, err, "catalog is not valid yaml")
	}

	if err := configValidator.ValidateBytes(raw); err != nil {
		return nil, api.Wrap(api.EINVALID, err, "catalog failed validation")
	}

	var config models.ReportConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, api.Wrap(api.EINVALID, err, "catalog could not be decoded")
	}
	return New(config)
}

// Load reads a catalog file. An empty path returns the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, api.Wrap(api.ENOTFOUND, err, fmt.Sprintf("failed to read catalog %s", path))
	}
	return Parse(data)
}

func (c *Catalog) Config() models.ReportConfig {
	return c.config
}

func (c *Catalog) Entities() []Entity {
	return c.entities
}

func (c *Catalog) Entity(entityType string) (Entity, bool) {
	return lo.Find(c.entities, func(e Entity) bool { return e.Type == entityType })
}

// FieldsFor returns the fields of an entity type.
func (c *Catalog) FieldsFor(entityType string) []models.FieldConfig {
	e, _ := c.Entity(entityType)
	return e.Fields
}

// EntitiesFor returns the entity types a report type carries.
func (c *Catalog) EntitiesFor(reportType string) []string {
	return c.config.ReportTypeEntities[reportType]
}

// ReportTypes returns the query defined report types.
func (c *Catalog) ReportTypes() []models.ReportTypeSpec {
	return c.config.ReportTypes
}

// DataSources returns the selectable sources of report conditions.
func (c *Catalog) DataSources() []models.DataSource {
	return c.config.DataSources
}

// Label returns the catalog label of a field, or the field name when the
// catalog does not know it.
func (c *Catalog) Label(entityType, field string) string {
	for _, f := range c.FieldsFor(entityType) {
		if f.Value == field {
			return f.Label
		}
	}
	return field
}

// Lookup returns the catalog entry of a composite key.
func (c *Catalog) Lookup(key string) (AvailableField, bool) {
	af, ok := c.byKey[key]
	return af, ok
}

// WithEntity returns a copy of the catalog with entity added or replaced.
func (c *Catalog) WithEntity(entity Entity) *Catalog {
	config := c.config
	config.FieldsByEntity = lo.Assign(config.FieldsByEntity, map[string][]models.FieldConfig{entity.Type: entity.Fields})
	if entity.Label != "" {
		config.EntityLabels = lo.Assign(config.EntityLabels, map[string]string{entity.Type: entity.Label})
	}

	order := lo.Map(c.entities, func(e Entity, _ int) string { return e.Type })
	if !lo.Contains(order, entity.Type) {
		order = append(order, entity.Type)
	}

	out, err := newCatalog(config, order)
	if err != nil {
		log.Warnf("failed to add entity %s: %v", entity.Type, err)
		return c
	}
	return out
}
