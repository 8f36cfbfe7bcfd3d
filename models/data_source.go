package models

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Selection string

const (
	SelectionSingle Selection = "single"
	SelectionMulti  Selection = "multi"
)

type DataSourceOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// DataSource is a selectable source of report conditions.
type DataSource struct {
	ID           string             `json:"id" yaml:"id"`
	Label        string             `json:"label" yaml:"label"`
	Selection    Selection          `json:"selection" yaml:"selection"`
	ConditionKey string             `json:"conditionKey" yaml:"conditionKey"`
	Options      []DataSourceOption `json:"options" yaml:"options"`
}

type Condition struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Operator string `json:"operator"`
}

// Select adds value to the current selection. Single selection sources keep
// only the latest value.
func (d DataSource) Select(selected []string, value string) []string {
	if d.Selection == SelectionSingle {
		if value == "" {
			return []string{}
		}
		return []string{value}
	}
	if value == "" || lo.Contains(selected, value) {
		return selected
	}
	return append(lo.Clone(selected), value)
}

func (d DataSource) HasOption(value string) bool {
	return lo.ContainsBy(d.Options, func(o DataSourceOption) bool { return o.Value == value })
}

// Conditions encodes the selection as the JSON condition list persisted on the
// report. An empty selection encodes as the empty string.
func (d DataSource) Conditions(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	if d.Selection == SelectionSingle {
		values = values[:1]
	}

	conditions := lo.Map(values, func(v string, _ int) Condition {
		return Condition{Key: d.ConditionKey, Value: v, Operator: "="}
	})
	b, err := json.Marshal(conditions)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
