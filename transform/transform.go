package transform

import (
	"fmt"

	"github.com/flanksource/commons/logger"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var log = logger.GetLogger("transform")

// ReportType selects how raw report content is flattened into rows.
type ReportType string

const (
	Organisations                 ReportType = "organisations"
	OrganisationsStatistics       ReportType = "organisations_statistics"
	OrganisationsOffers           ReportType = "organisations_offers"
	OrganisationsOffersStatistics ReportType = "organisations_offers_statistics"
	SchoolsStatisticsOffers       ReportType = "schools_statistics_offers"
)

// ReportTypes lists the built in report types.
var ReportTypes = []ReportType{
	Organisations,
	OrganisationsStatistics,
	OrganisationsOffers,
	OrganisationsOffersStatistics,
	SchoolsStatisticsOffers,
}

// flattenItem returns the rows of one raw item. ok is false for report types
// without a built in transform.
func (t ReportType) flattenItem(item any) (rows []types.Row, ok bool) {
	switch t {
	case Organisations:
		return eachObject(t, item, false, flattenOrganisation), true
	case OrganisationsStatistics:
		return eachObject(t, item, false, flattenStatistics), true
	case OrganisationsOffers:
		return eachObject(t, item, false, flattenOffers), true
	case OrganisationsOffersStatistics:
		return eachObject(t, item, true, flattenOfferStatistics), true
	case SchoolsStatisticsOffers:
		return eachObject(t, item, false, flattenSchool), true
	default:
		return nil, false
	}
}

// eachObject validates item and applies fn. When nested is set an array of
// objects is accepted in place of a single object.
func eachObject(t ReportType, item any, nested bool, fn func(map[string]any) []types.Row) []types.Row {
	if items, isArray := item.([]any); isArray && nested {
		return lo.FlatMap(items, func(sub any, _ int) []types.Row { return eachObject(t, sub, false, fn) })
	}

	obj, ok := asObject(item)
	if !ok {
		log.V(3).Infof("dropping %s item of type %T", t, item)
		return nil
	}
	if !validate(t, obj) {
		return nil
	}
	return fn(obj)
}

// Transformer flattens raw content for built in and query defined report types.
type Transformer struct {
	custom map[string]*query
}

// New compiles the query defined report types.
func New(specs ...models.ReportTypeSpec) (*Transformer, error) {
	t := &Transformer{custom: map[string]*query{}}
	for _, spec := range specs {
		if lo.Contains(ReportTypes, ReportType(spec.Name)) {
			return nil, fmt.Errorf("report type %s is built in", spec.Name)
		}
		q, err := compile(spec)
		if err != nil {
			return nil, fmt.Errorf("report type %s: %w", spec.Name, err)
		}
		t.custom[spec.Name] = q
	}
	return t, nil
}

var defaultTransformer = &Transformer{}

// Flatten flattens raw content with the built in report types.
func Flatten(raw []any, reportType string) []types.Row {
	return defaultTransformer.Flatten(raw, reportType)
}

// Flatten turns raw content into one flat row per leaf combination.
// Malformed items contribute no rows. Unknown report types pass object
// items through unchanged.
func (t *Transformer) Flatten(raw []any, reportType string) []types.Row {
	if len(raw) == 0 {
		return []types.Row{}
	}

	out := make([]types.Row, 0, len(raw))
	if q, ok := t.custom[reportType]; ok {
		for _, item := range raw {
			out = append(out, q.rows(item)...)
		}
		return out
	}

	rt := ReportType(reportType)
	for _, item := range raw {
		rows, ok := rt.flattenItem(item)
		if !ok {
			if obj, isObject := asObject(item); isObject {
				rows = []types.Row{types.Row(obj).Clone()}
			}
		}
		out = append(out, rows...)
	}

	if log.IsLevelEnabled(4) {
		log.Tracef("flattened %d %s items into %d rows", len(raw), reportType, len(out))
	}
	return out
}

// Has reports whether reportType has a built in or query defined transform.
func (t *Transformer) Has(reportType string) bool {
	_, custom := t.custom[reportType]
	return custom || lo.Contains(ReportTypes, ReportType(reportType))
}

func asObject(item any) (map[string]any, bool) {
	switch v := item.(type) {
	case map[string]any:
		return v, true
	case types.Row:
		return v, true
	}
	return nil, false
}

// Decode reads raw content: a JSON array of items or a single item.
func Decode(data []byte) ([]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	switch x := v.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return x, nil
	default:
		return []any{x}, nil
	}
}
