package store

import (
	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/report"
)

// Callbacks persists the changes of a report session in the database
// attached to ctx.
func Callbacks(ctx context.Context, id string) report.Callbacks {
	// the session passes its own context, which may not carry the database
	with := func(c context.Context) context.Context {
		if c.DB() != nil {
			return c
		}
		return ctx.Wrap(c).WithReport(id)
	}
	done := func(err error) (bool, error) { return err == nil, err }

	return report.Callbacks{
		UpdateTitle: func(c context.Context, title string) (bool, error) {
			return done(UpdateTitle(with(c), id, title))
		},
		UpdateConditions: func(c context.Context, conditions string) (bool, error) {
			return done(UpdateConditions(with(c), id, conditions))
		},
		UpdateFields: func(c context.Context, fields models.Fields) (bool, error) {
			return done(UpdateFields(with(c), id, fields))
		},
		UpdateFilters: func(c context.Context, filters models.FilterGroups) (bool, error) {
			return done(UpdateFilters(with(c), id, filters))
		},
		UpdateSorting: func(c context.Context, sorting models.SortingList) (bool, error) {
			return done(UpdateSorting(with(c), id, sorting))
		},
		UpdateChart: func(c context.Context, chart string, fields models.Fields) (bool, error) {
			return done(UpdateChart(with(c), id, chart, fields))
		},
		Delete: func(c context.Context) (bool, error) {
			return done(Delete(with(c), id))
		},
	}
}

// State loads everything a report session starts from.
func State(ctx context.Context, id string) (report.State, error) {
	r, err := Get(ctx, id)
	if err != nil {
		return report.State{}, err
	}
	content, err := GetContent(ctx, id)
	if err != nil {
		return report.State{}, err
	}
	return report.State{
		Report:  r.Model(),
		Content: content,
		Fields:  r.Fields,
		Filters: r.Filters,
		Sorting: r.Sorting,
		Chart:   r.Chart,
	}, nil
}
