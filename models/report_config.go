package models

import "github.com/flanksource/reports/types"

// FieldConfig is a field catalog entry. Value is unique within an entity type.
type FieldConfig struct {
	Value    string         `json:"value" yaml:"value" jsonschema:"required,minLength=1"`
	Label    string         `json:"label" yaml:"label" jsonschema:"required"`
	DataType types.DataType `json:"dataType" yaml:"dataType" jsonschema:"required,enum=string,enum=number,enum=float,enum=date,enum=boolean,enum=array"`
}

// ReportConfig is the host supplied field catalog.
type ReportConfig struct {
	// FieldsByEntity lists the fields of each entity type
	FieldsByEntity map[string][]FieldConfig `json:"fieldsByEntity" yaml:"fieldsByEntity" jsonschema:"required"`

	// ReportTypeEntities maps a report type to the entity types its rows carry
	ReportTypeEntities map[string][]string `json:"reportTypeEntities,omitempty" yaml:"reportTypeEntities,omitempty"`

	// EntityLabels names the origin of an entity type, e.g. organisation -> Organisation
	EntityLabels map[string]string `json:"entityLabels,omitempty" yaml:"entityLabels,omitempty"`

	// DefaultRangeFields maps a report type to the composite key of its default range filter field
	DefaultRangeFields map[string]string `json:"defaultRangeFields,omitempty" yaml:"defaultRangeFields,omitempty"`

	// ReportTypes declares report types flattened by a query instead of a built in transform
	ReportTypes []ReportTypeSpec `json:"reportTypes,omitempty" yaml:"reportTypes,omitempty"`

	// DataSources are the selectable sources of report conditions
	DataSources []DataSource `json:"dataSources,omitempty" yaml:"dataSources,omitempty"`
}

// ReportTypeSpec flattens raw items with either a jq projection (one row per
// emitted object) or a map of column key to jsonpath (one row per item).
type ReportTypeSpec struct {
	Name    string            `json:"name" yaml:"name" jsonschema:"required,minLength=1"`
	JQ      string            `json:"jq,omitempty" yaml:"jq,omitempty"`
	Columns map[string]string `json:"columns,omitempty" yaml:"columns,omitempty"`
}
