package report

import (
	"time"

	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/filter"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

// AddFilter adds the default filter of a displayed field.
func (s *Session) AddFilter(key string) error {
	return s.mutateFilters(func(state State) (models.FilterGroups, error) {
		if state.Fields.IndexOf(key) < 0 {
			return nil, api.Errorf(api.ENOTFOUND, "field %s is not displayed", key)
		}
		if filter.SelectedFieldsInGroups(state.Filters).Contains(key) {
			return nil, api.Errorf(api.ECONFLICT, "field %s is filtered already", key)
		}
		return filter.AddToGroups(state.Filters, s.catalog().DefaultFilterFor(key), s.isDefaultRange(state)), nil
	})
}

func (s *Session) RemoveFilter(group, index int) error {
	return s.mutateFilters(func(state State) (models.FilterGroups, error) {
		return filter.RemoveFromGroups(state.Filters, group, index), nil
	})
}

func (s *Session) UpdateFilterOperator(group, index int, op types.Operator) error {
	return s.mutateFilters(func(state State) (models.FilterGroups, error) {
		return filter.UpdateOperatorInGroups(state.Filters, group, index, op), nil
	})
}

func (s *Session) UpdateFilterValue(group, index int, value string) error {
	return s.mutateFilters(func(state State) (models.FilterGroups, error) {
		return filter.UpdateValueInGroups(state.Filters, group, index, value), nil
	})
}

// SetFilters replaces the whole filter state.
func (s *Session) SetFilters(groups models.FilterGroups) error {
	return s.mutateFilters(func(State) (models.FilterGroups, error) {
		return cloneGroups(groups), nil
	})
}

func cloneGroups(groups models.FilterGroups) models.FilterGroups {
	out := make(models.FilterGroups, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Clone())
	}
	return out
}

func (s *Session) mutateFilters(fn func(State) (models.FilterGroups, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return api.Errorf(api.ECONFLICT, "report %s is closed", s.state.Report.ID)
	}
	next, err := fn(s.state)
	if err != nil {
		return err
	}
	s.state.Filters = s.withDefaultRange(s.state, next)
	s.schedule(s.state.Filters)
	return nil
}

// schedule replaces any pending filter write. Must be called with the lock held.
func (s *Session) schedule(groups models.FilterGroups) {
	s.pending = cloneGroups(groups)
	s.hasPending = true
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
	}
	generation := s.generation
	s.timer = time.AfterFunc(s.debounce, func() {
		if _, err := s.flush(s.ctx, generation); err != nil {
			log.V(2).Infof("debounced filter write of %s failed: %v", s.ctx.ReportID(), err)
		}
	})
}

// Pending reports whether a filter write is waiting to be persisted.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPending
}

// Flush persists a pending filter write at once. Without a pending write it
// succeeds without calling the host.
func (s *Session) Flush(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return s.flush(s.scope(ctx), -1)
}

// flush writes the pending filters unless a newer edit superseded generation.
// A negative generation flushes whatever is pending.
func (s *Session) flush(ctx context.Context, generation int) (bool, error) {
	s.mu.Lock()
	if !s.hasPending || (generation >= 0 && generation != s.generation) {
		s.mu.Unlock()
		return true, nil
	}
	groups := s.pending
	s.pending, s.hasPending, s.timer = nil, false, nil
	s.mu.Unlock()

	if s.callbacks.UpdateFilters == nil {
		return false, unsupported("update_filters")
	}
	ok, err := persist(ctx, "update_filters", func() (bool, error) { return s.callbacks.UpdateFilters(ctx, groups) })
	if !ok {
		return false, err
	}
	notify(s.callbacks.Refetch)
	return true, nil
}

// Close drops a pending filter write. Filter edits fail afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.generation++
	s.pending, s.hasPending = nil, false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
