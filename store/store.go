package store

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/prometheus"

	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/transform"
)

const MemoryDSN = ":memory:"

// Report is the persisted form of a report and its view state.
type Report struct {
	ID         string              `gorm:"primaryKey" json:"id"`
	Type       string              `gorm:"index;not null" json:"type"`
	Title      string              `json:"title"`
	Fields     models.Fields       `gorm:"type:text" json:"fields,omitempty"`
	Filters    models.FilterGroups `gorm:"type:text" json:"filters,omitempty"`
	Sorting    models.SortingList  `gorm:"type:text" json:"sorting,omitempty"`
	Chart      string              `json:"chart,omitempty"`
	Conditions string              `json:"conditions,omitempty"`
	Meta       *models.ReportMeta  `gorm:"type:text" json:"meta,omitempty"`
	CreatedBy  string              `json:"created_by,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	DeletedAt  gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (Report) TableName() string {
	return "reports"
}

func (r *Report) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Model returns the report definition the pipeline works on.
func (r Report) Model() models.Report {
	meta := r.Meta
	if meta != nil && len(meta.Grouping) == 0 {
		meta = nil
	}
	return models.Report{
		ID:         r.ID,
		Type:       r.Type,
		Title:      r.Title,
		Fields:     r.Fields,
		Chart:      r.Chart,
		Conditions: r.Conditions,
		Meta:       meta,
	}
}

// Content is the raw payload a report is rendered from.
type Content struct {
	ReportID  string `gorm:"primaryKey"`
	Data      string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (Content) TableName() string {
	return "report_contents"
}

// Open connects to a sqlite database, migrates it and returns a context
// carrying the connection.
func Open(ctx context.Context, dsn string) (context.Context, func() error, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}

	db, err := gorm.Open(sqlite.Open(dsn), DefaultGormConfig(ctx))
	if err != nil {
		return ctx, nil, errors.Wrapf(err, "failed to open %s", dsn)
	}

	if err := db.Use(NewOopsPlugin()); err != nil {
		return ctx, nil, errors.Wrap(err, "failed to register oops plugin")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return ctx, nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	// every connection to :memory: opens a new empty database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Report{}, &Content{}); err != nil {
		return ctx, sqlDB.Close, errors.Wrap(err, "failed to migrate")
	}

	return ctx.WithDB(db), sqlDB.Close, nil
}

func dbOf(ctx context.Context) (*gorm.DB, error) {
	db := ctx.DB()
	if db == nil {
		return nil, api.Errorf(api.EINTERNAL, "no database attached to the context")
	}
	return db, nil
}

func Create(ctx context.Context, r *Report) error {
	db, err := dbOf(ctx)
	if err != nil {
		return err
	}
	if r.Type == "" {
		return api.Errorf(api.EINVALID, "report type is required")
	}
	if r.CreatedBy == "" {
		r.CreatedBy = ctx.User()
	}
	if err := db.Create(r).Error; err != nil {
		return errors.Wrap(err, "failed to create report")
	}
	return nil
}

func Get(ctx context.Context, id string) (*Report, error) {
	db, err := dbOf(ctx)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := db.Where("id = ?", id).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, api.Errorf(api.ENOTFOUND, "report %s not found", id)
		}
		return nil, errors.Wrapf(err, "failed to get report %s", id)
	}
	return &r, nil
}

// List returns the reports ordered by creation, optionally of one type only.
func List(ctx context.Context, reportType string) ([]Report, error) {
	db, err := dbOf(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Order("created_at")
	if reportType != "" {
		q = q.Where("type = ?", reportType)
	}
	var reports []Report
	if err := q.Find(&reports).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list reports")
	}
	return reports, nil
}

// SaveContent replaces the payload of a report. data must be a JSON value.
func SaveContent(ctx context.Context, id string, data []byte) error {
	if _, err := transform.Decode(data); err != nil {
		return api.Wrap(api.EINVALID, err, "content is not valid JSON")
	}
	if _, err := Get(ctx, id); err != nil {
		return err
	}
	db, _ := dbOf(ctx)
	c := Content{ReportID: id, Data: string(data)}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&c).Error; err != nil {
		return errors.Wrapf(err, "failed to save content of %s", id)
	}
	return nil
}

// GetContent returns the decoded payload of a report, empty when none was
// saved.
func GetContent(ctx context.Context, id string) ([]any, error) {
	db, err := dbOf(ctx)
	if err != nil {
		return nil, err
	}
	var c Content
	if err := db.Where("report_id = ?", id).Limit(1).Find(&c).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to get content of %s", id)
	}
	if c.Data == "" {
		return []any{}, nil
	}
	return transform.Decode([]byte(c.Data))
}

func update(ctx context.Context, id string, values map[string]any) error {
	db, err := dbOf(ctx)
	if err != nil {
		return err
	}
	tx := db.Model(&Report{}).Where("id = ?", id).Updates(values)
	if tx.Error != nil {
		return errors.Wrapf(tx.Error, "failed to update report %s", id)
	}
	if tx.RowsAffected == 0 {
		return api.Errorf(api.ENOTFOUND, "report %s not found", id)
	}
	return nil
}

func UpdateTitle(ctx context.Context, id, title string) error {
	return update(ctx, id, map[string]any{"title": title})
}

func UpdateConditions(ctx context.Context, id, conditions string) error {
	return update(ctx, id, map[string]any{"conditions": conditions})
}

func UpdateFields(ctx context.Context, id string, fields models.Fields) error {
	return update(ctx, id, map[string]any{"fields": fields})
}

func UpdateFilters(ctx context.Context, id string, filters models.FilterGroups) error {
	return update(ctx, id, map[string]any{"filters": filters})
}

func UpdateSorting(ctx context.Context, id string, sorting models.SortingList) error {
	return update(ctx, id, map[string]any{"sorting": sorting})
}

func UpdateChart(ctx context.Context, id, chart string, fields models.Fields) error {
	return update(ctx, id, map[string]any{"chart": chart, "fields": fields})
}

// Delete soft deletes a report. Its content is removed.
func Delete(ctx context.Context, id string) error {
	db, err := dbOf(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&Report{})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to delete report %s", id)
		}
		if res.RowsAffected == 0 {
			return api.Errorf(api.ENOTFOUND, "report %s not found", id)
		}
		return errors.Wrapf(tx.Where("report_id = ?", id).Delete(&Content{}).Error, "failed to delete content of %s", id)
	})
}

// Purge permanently removes reports soft deleted more than olderThan ago.
func Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	db, err := dbOf(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Unscoped().Where("deleted_at IS NOT NULL AND deleted_at < ?", time.Now().UTC().Add(-olderThan)).Delete(&Report{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to purge deleted reports")
	}
	return res.RowsAffected, nil
}

// RegisterMetrics exports the connection pool stats of the database as
// prometheus gauges.
func RegisterMetrics(ctx context.Context, name string) error {
	db, err := dbOf(ctx)
	if err != nil {
		return err
	}
	return db.Use(prometheus.New(prometheus.Config{
		DBName:          name,
		RefreshInterval: 15,
		StartServer:     false,
	}))
}
