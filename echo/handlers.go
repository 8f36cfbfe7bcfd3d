package echo

import (
	"fmt"
	"io"
	"net/http"

	echov4 "github.com/labstack/echo/v4"

	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/catalog"
	"github.com/flanksource/reports/export"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/report"
	"github.com/flanksource/reports/store"
	"github.com/flanksource/reports/types"
)

// FieldsPatch is one display field operation.
type FieldsPatch struct {
	Op         string               `json:"op"`
	Key        string               `json:"key,omitempty"`
	Next       string               `json:"next,omitempty"`
	Direction  string               `json:"direction,omitempty"`
	EntityType string               `json:"entityType,omitempty"`
	Field      string               `json:"field,omitempty"`
	Order      []report.ColumnOrder `json:"order,omitempty"`
	Fields     models.Fields        `json:"fields,omitempty"`
}

// FiltersPatch is one filter edit. Flush persists it without waiting for the
// debounce period.
type FiltersPatch struct {
	Op       string              `json:"op"`
	Group    int                 `json:"group"`
	Index    int                 `json:"index"`
	Key      string              `json:"key,omitempty"`
	Operator types.Operator      `json:"operator,omitempty"`
	Value    string              `json:"value,omitempty"`
	Filters  models.FilterGroups `json:"filters,omitempty"`
	Flush    bool                `json:"flush,omitempty"`
}

type ChartPatch struct {
	Kind        string  `json:"kind,omitempty"`
	Aggregation *string `json:"aggregation,omitempty"`
}

type ConditionsPatch struct {
	Source string   `json:"source"`
	Values []string `json:"values"`
}

type TitlePatch struct {
	Title string `json:"title"`
}

func bind(c echov4.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return api.Errorf(api.EINVALID, "invalid request body: %v", err)
	}
	return nil
}

// persisted turns the outcome of a session change into a response.
func persisted(c echov4.Context, session *report.Session, ok bool, err error) error {
	if err != nil {
		return api.WriteError(c, err)
	}
	if !ok {
		return api.WriteError(c, api.Errorf(api.EINTERNAL, "change was not persisted"))
	}
	return api.WriteSuccess(c, session.State().Report)
}

func (s *Server) Catalog(c echov4.Context) error {
	cat := s.pipeline.Catalog()
	return c.JSON(http.StatusOK, map[string]any{
		"entities":     cat.Entities(),
		"fields":       cat.AvailableFields(nil),
		"reportTypes":  cat.Config().ReportTypeEntities,
		"aggregations": catalog.AggregationMethods(),
	})
}

func (s *Server) ListReports(c echov4.Context) error {
	reports, err := store.List(requestContext(c), c.QueryParam("type"))
	if err != nil {
		return api.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, reports)
}

func (s *Server) CreateReport(c echov4.Context) error {
	var r store.Report
	if err := bind(c, &r); err != nil {
		return api.WriteError(c, err)
	}
	if err := store.Create(requestContext(c), &r); err != nil {
		return api.WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) GetReport(c echov4.Context) error {
	r, err := store.Get(requestContext(c), c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) DeleteReport(c echov4.Context) error {
	ctx := requestContext(c)
	session, err := s.session(ctx, c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}
	ok, err := session.Delete(ctx)
	if err != nil {
		return api.WriteError(c, err)
	}
	if !ok {
		return api.WriteError(c, api.Errorf(api.EINTERNAL, "report was not deleted"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) PutContent(c echov4.Context) error {
	ctx := requestContext(c)
	id := c.Param("id")
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return api.WriteError(c, api.Errorf(api.EINVALID, "failed to read content: %v", err))
	}
	if err := store.SaveContent(ctx, id, data); err != nil {
		return api.WriteError(c, err)
	}
	if session, ok := s.sessions.Get(id); ok {
		state, err := s.state(ctx, id)
		if err != nil {
			return api.WriteError(c, err)
		}
		session.Update(state)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) Render(c echov4.Context) error {
	ctx := requestContext(c)
	session, err := s.session(ctx, c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, session.Render(ctx))
}

func (s *Server) Export(c echov4.Context) error {
	ctx := requestContext(c)
	session, err := s.session(ctx, c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}
	result := session.Render(ctx)
	csv := export.ToCSV(result.Filtered, result.Fields, s.pipeline.Catalog())

	c.Response().Header().Set(echov4.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.FileName(session.State().Report)))
	return c.Blob(http.StatusOK, export.ContentType, []byte(csv))
}

// FilterOptions describes how a field can be filtered: its operators, the
// input it takes and for arrays the values present in the content.
func (s *Server) FilterOptions(c echov4.Context) error {
	ctx := requestContext(c)
	key := c.QueryParam("key")
	if key == "" {
		return api.WriteError(c, api.Errorf(api.EINVALID, "key is required"))
	}
	session, err := s.session(ctx, c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}

	cat := s.pipeline.Catalog()
	out := map[string]any{
		"operators": cat.OperatorOptions(key),
		"input":     cat.InputTypeFor(key),
	}
	if dataType, _ := cat.DataTypeOf(key); dataType == types.DataTypeArray {
		out["options"] = session.ArrayFilterOptions(ctx, key)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) PatchTitle(c echov4.Context) error {
	ctx := requestContext(c)
	var body TitlePatch
	if err := bind(c, &body); err != nil {
		return api.WriteError(c, err)
	}
	session, err := s.session(ctx, c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}
	ok, err := session.UpdateTitle(ctx, body.Title)
	return persisted(c, session, ok, err)
}

func (s *Server) PatchFields(c echov4.Context) error {
	ctx := requestContext(c)
	var body FieldsPatch
	if err := bind(c, &body); err != nil {
		return api.WriteError(c, err)
	}
	session, err := s.session(ctx, c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}

	direction := types.SortDirection(body.Direction)
	var ok bool
	switch body.Op {
	case "set":
		ok, err = session.SetFields(ctx, body.Fields)
	case "group_by_column":
		ok, err = session.GroupByColumn(ctx, body.Key)
	case "sort_by_column":
		ok, err = session.SortByColumn(ctx, body.Key, direction)
	case "reorder_columns":
		ok, err = session.ReorderColumns(ctx, body.Order)
	case "add_field":
		ok, err = session.AddField(ctx, body.EntityType, body.Field)
	case "remove_field":
		ok, err = session.RemoveField(ctx, body.Key)
	case "add_sort":
		ok, err = session.AddSort(ctx)
	case "remove_sort":
		ok, err = session.RemoveSort(ctx, body.Key)
	case "clear_sort":
		ok, err = session.ClearSort(ctx)
	case "update_sort_field":
		ok, err = session.UpdateSortField(ctx, body.Key, body.Next)
	case "update_sort_direction":
		ok, err = session.UpdateSortDirection(ctx, body.Key, direction)
	case "add_grouping":
		ok, err = session.AddGrouping(ctx, body.Key)
	case "remove_grouping":
		ok, err = session.RemoveGrouping(ctx, body.Key)
	case "clear_grouping":
		ok, err = session.ClearGrouping(ctx)
	case "move_grouping":
		ok, err = session.MoveGrouping(ctx, body.Key, report.MoveDirection(body.Direction))
	default:
		err = api.Errorf(api.EINVALID, "unknown fields operation %q", body.Op)
	}
	return persisted(c, session, ok, err)
}

func (s *Server) PatchFilters(c echov4.Context) error {
	ctx := requestContext(c)
	var body FiltersPatch
	if err := bind(c, &body); err != nil {
		return api.WriteError(c, err)
	}
	session, err := s.session(ctx, c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}

	switch body.Op {
	case "add":
		err = session.AddFilter(body.Key)
	case "remove":
		err = session.RemoveFilter(body.Group, body.Index)
	case "update_operator":
		err = session.UpdateFilterOperator(body.Group, body.Index, body.Operator)
	case "update_value":
		err = session.UpdateFilterValue(body.Group, body.Index, body.Value)
	case "set":
		err = session.SetFilters(body.Filters)
	case "flush":
		body.Flush = true
	default:
		err = api.Errorf(api.EINVALID, "unknown filters operation %q", body.Op)
	}
	if err != nil {
		return api.WriteError(c, err)
	}

	if body.Flush {
		ok, err := session.Flush(ctx)
		if err != nil || !ok {
			return persisted(c, session, ok, err)
		}
	}
	return api.WriteSuccess(c, map[string]any{
		"filters": session.State().Filters,
		"pending": session.Pending(),
	})
}

func (s *Server) PatchSorting(c echov4.Context) error {
	ctx := requestContext(c)
	var body models.SortingList
	if err := bind(c, &body); err != nil {
		return api.WriteError(c, err)
	}
	session, err := s.session(ctx, c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}
	ok, err := session.UpdateSorting(ctx, body)
	return persisted(c, session, ok, err)
}

func (s *Server) PatchChart(c echov4.Context) error {
	ctx := requestContext(c)
	var body ChartPatch
	if err := bind(c, &body); err != nil {
		return api.WriteError(c, err)
	}
	session, err := s.session(ctx, c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}

	ok := true
	if body.Kind != "" {
		ok, err = session.SetChart(ctx, body.Kind)
	}
	if err == nil && ok && body.Aggregation != nil {
		ok, err = session.SetChartAggregation(ctx, *body.Aggregation)
	}
	return persisted(c, session, ok, err)
}

func (s *Server) PatchConditions(c echov4.Context) error {
	ctx := requestContext(c)
	var body ConditionsPatch
	if err := bind(c, &body); err != nil {
		return api.WriteError(c, err)
	}
	session, err := s.session(ctx, c.Param("id"))
	if err != nil {
		return api.WriteError(c, err)
	}
	ok, err := session.UpdateConditions(ctx, body.Source, body.Values)
	return persisted(c, session, ok, err)
}
