package transform

import (
	"fmt"
	"slices"

	"github.com/itchyny/gojq"
	"github.com/ohler55/ojg/jp"
	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

// query flattens one raw item of a query defined report type.
type query struct {
	name    string
	code    *gojq.Code
	columns map[string]jp.Expr
	keys    []string
}

func compile(spec models.ReportTypeSpec) (*query, error) {
	q := &query{name: spec.Name}

	switch {
	case spec.JQ != "" && len(spec.Columns) > 0:
		return nil, fmt.Errorf("jq and columns are mutually exclusive")

	case spec.JQ != "":
		parsed, err := gojq.Parse(spec.JQ)
		if err != nil {
			return nil, fmt.Errorf("invalid jq expression %q: %w", spec.JQ, err)
		}
		if q.code, err = gojq.Compile(parsed); err != nil {
			return nil, fmt.Errorf("failed to compile jq expression %q: %w", spec.JQ, err)
		}

	case len(spec.Columns) > 0:
		q.columns = make(map[string]jp.Expr, len(spec.Columns))
		for column, path := range spec.Columns {
			expr, err := jp.ParseString(path)
			if err != nil {
				return nil, fmt.Errorf("invalid jsonPath expression %q: %w", path, err)
			}
			q.columns[column] = expr
		}
		q.keys = lo.Keys(q.columns)
		slices.Sort(q.keys)

	default:
		return nil, fmt.Errorf("one of jq or columns is required")
	}

	return q, nil
}

// rows returns nil when the query fails on item.
func (q *query) rows(item any) []types.Row {
	input, err := plain(item)
	if err != nil {
		log.V(3).Infof("dropping %s item: %v", q.name, err)
		return nil
	}

	if q.code != nil {
		return q.runJQ(input)
	}
	return []types.Row{q.runColumns(input)}
}

func (q *query) runJQ(input any) []types.Row {
	var rows []types.Row
	iter := q.code.Run(input)
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := val.(error); ok {
			log.V(3).Infof("dropping %s item: error running jq: %v", q.name, err)
			return nil
		}

		switch v := val.(type) {
		case map[string]any:
			rows = append(rows, types.Row(v))
		case []any:
			for _, elem := range v {
				if obj, ok := elem.(map[string]any); ok {
					rows = append(rows, types.Row(obj))
				}
			}
		case nil:
		default:
			log.V(3).Infof("%s: ignoring jq result of type %T", q.name, val)
		}
	}
	return rows
}

func (q *query) runColumns(input any) types.Row {
	row := types.Row{}
	for _, column := range q.keys {
		results := q.columns[column].Get(input)
		switch len(results) {
		case 0:
		case 1:
			row[column] = results[0]
		default:
			row[column] = results
		}
	}
	return row
}

// plain converts item into the generic JSON values both query engines expect.
func plain(item any) (any, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
