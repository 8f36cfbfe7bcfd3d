package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"gorm.io/gorm"

	"github.com/flanksource/reports/api"
)

// oopsPlugin wraps every gorm error with oops and tags it "db". Constraint
// violations carry the ECONFLICT code.
type oopsPlugin struct{}

func NewOopsPlugin() gorm.Plugin {
	return &oopsPlugin{}
}

func (p oopsPlugin) Name() string {
	return "reports-oops"
}

type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

func (p oopsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		callback gormRegister
		name     string
	}{
		{cb.Create().After("gorm:create"), "after:create"},
		{cb.Query().After("gorm:query"), "after:select"},
		{cb.Delete().After("gorm:delete"), "after:delete"},
		{cb.Update().After("gorm:update"), "after:update"},
		{cb.Row().After("gorm:row"), "after:row"},
		{cb.Raw().After("gorm:raw"), "after:raw"},
	}

	var firstErr error
	for _, h := range hooks {
		if err := h.callback.Register("oops:"+h.name, wrapError); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("callback register %s failed: %w", h.name, err)
		}
	}
	return firstErr
}

func wrapError(tx *gorm.DB) {
	if tx.Error == nil || errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return
	}
	var wrapped oops.OopsError
	if errors.As(tx.Error, &wrapped) {
		return
	}

	builder := oops.Tags("db")
	if strings.Contains(tx.Error.Error(), "constraint failed") {
		builder = builder.Code(api.ECONFLICT)
	}
	tx.Error = builder.Wrap(tx.Error)
}

// IsBusyError reports whether err is sqlite refusing a write because another
// connection holds the lock.
func IsBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
