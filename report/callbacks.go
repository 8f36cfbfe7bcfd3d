package report

import (
	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/models"
)

// Callbacks persist report changes on the host. Each returns true only when
// the change has been stored durably.
type Callbacks struct {
	UpdateTitle      func(ctx context.Context, title string) (bool, error)
	UpdateConditions func(ctx context.Context, conditions string) (bool, error)
	UpdateFields     func(ctx context.Context, fields models.Fields) (bool, error)
	UpdateFilters    func(ctx context.Context, filters models.FilterGroups) (bool, error)
	UpdateSorting    func(ctx context.Context, sorting models.SortingList) (bool, error)
	UpdateChart      func(ctx context.Context, chart string, fields models.Fields) (bool, error)
	Delete           func(ctx context.Context) (bool, error)

	// Notifications, all optional.
	Refetch        func()
	RefetchContent func()
	NavigateBack   func()
}

func notify(fn func()) {
	if fn != nil {
		fn()
	}
}

// persist runs a host callback and records its outcome.
func persist(ctx context.Context, operation string, call func() (bool, error)) (bool, error) {
	ok, err := call()
	result := "ok"
	switch {
	case err != nil:
		result = "error"
		log.Errorf("%s of report %s failed: %v", operation, ctx.ReportID(), err)
	case !ok:
		result = "rejected"
		log.Errorf("%s of report %s was not persisted", operation, ctx.ReportID())
	}
	ctx.Counter("report_persist_total", "operation", operation, "result", result).Add(1)
	return ok && err == nil, err
}

func unsupported(operation string) error {
	return api.Errorf(api.ENOTIMPLEMENTED, "%s is not supported by the host", operation)
}
