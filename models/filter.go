package models

import (
	"database/sql/driver"
	"slices"

	"github.com/samber/lo"

	"github.com/flanksource/reports/types"
)

// Filter restricts rows on one composite column key.
//
// Value encoding depends on the operator: a scalar for equals/contains/...,
// "{from}|{to}" for between and "{v1}||{v2}" for array operators.
type Filter struct {
	Field    string         `json:"field" yaml:"field"`
	Operator types.Operator `json:"operator" yaml:"operator"`
	Value    string         `json:"value" yaml:"value"`
}

type Connector string

const (
	ConnectorAnd Connector = "AND"
	ConnectorOr  Connector = "OR"
)

// FilterGroup holds filters joined by connectors; len(Connectors) is
// len(Filters)-1.
type FilterGroup struct {
	Filters    []Filter    `json:"filters" yaml:"filters"`
	Connectors []Connector `json:"connectors" yaml:"connectors"`
}

func (g FilterGroup) Clone() FilterGroup {
	return FilterGroup{
		Filters:    slices.Clone(g.Filters),
		Connectors: slices.Clone(g.Connectors),
	}
}

type FilterGroups []FilterGroup

// Filters flattens the groups into one list.
func (gs FilterGroups) Filters() []Filter {
	return lo.FlatMap(gs, func(g FilterGroup, _ int) []Filter { return g.Filters })
}

func (gs FilterGroups) Value() (driver.Value, error) {
	return types.GenericStructValue(gs, true)
}

func (gs *FilterGroups) Scan(val any) error {
	return types.GenericStructScan(gs, val)
}

// Sorting is an explicit sort rule; lower Order takes priority.
type Sorting struct {
	Field     string              `json:"field" yaml:"field"`
	Direction types.SortDirection `json:"direction" yaml:"direction"`
	Order     int                 `json:"order" yaml:"order"`
}

type SortingList []Sorting

func (s SortingList) Value() (driver.Value, error) {
	return types.GenericStructValue(s, true)
}

func (s *SortingList) Scan(val any) error {
	return types.GenericStructScan(s, val)
}
