package models

import (
	"database/sql/driver"

	"github.com/samber/lo"

	"github.com/flanksource/reports/types"
)

const DefaultChart = "bar"

// Report is a report definition as supplied by the host.
type Report struct {
	ID         string      `json:"id,omitempty" yaml:"id,omitempty"`
	Type       string      `json:"type" yaml:"type"`
	Title      string      `json:"title,omitempty" yaml:"title,omitempty"`
	Fields     Fields      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Chart      string      `json:"chart,omitempty" yaml:"chart,omitempty"`
	Conditions string      `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Meta       *ReportMeta `json:"meta,omitempty" yaml:"meta,omitempty"`
}

type ReportMeta struct {
	Grouping []MetaGrouping `json:"grouping,omitempty" yaml:"grouping,omitempty"`
}

// MetaGrouping is a grouping level stored on the report rather than on a
// display field.
type MetaGrouping struct {
	Field      string         `json:"field" yaml:"field"`
	EntityType string         `json:"entityType" yaml:"entityType"`
	Order      int            `json:"order" yaml:"order"`
	Aggregate  *MetaAggregate `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
}

type MetaAggregate struct {
	Method types.Aggregation `json:"method" yaml:"method"`
	Field  string            `json:"field" yaml:"field"`
}

func (m MetaGrouping) Key() string {
	return types.ColumnKey(m.EntityType, m.Field)
}

// ChartOrDefault returns the chart kind, "bar" when unset.
func (r Report) ChartOrDefault() string {
	return lo.CoalesceOrEmpty(r.Chart, DefaultChart)
}

func (m *ReportMeta) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return types.GenericStructValue(*m, true)
}

func (m *ReportMeta) Scan(val any) error {
	return types.GenericStructScan(m, val)
}
