package context

import (
	gocontext "context"
	"time"

	commons "github.com/flanksource/commons/context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

type Gormable interface {
	DB() *gorm.DB
}

// Context carries the database, the acting user and the report being worked
// on through a request.
type Context struct {
	commons.Context
}

func New(baseCtx gocontext.Context, opts ...commons.ContextOptions) Context {
	baseOpts := []commons.ContextOptions{
		commons.WithDebugFn(func(ctx commons.Context) bool {
			return flag(ctx, "debug") || flag(ctx, "trace")
		}),
		commons.WithTraceFn(func(ctx commons.Context) bool {
			return flag(ctx, "trace")
		}),
	}
	baseOpts = append(baseOpts, opts...)
	return Context{
		Context: commons.NewContext(baseCtx, baseOpts...),
	}
}

func flag(ctx commons.Context, name string) bool {
	v, _ := ctx.Value(name).(bool)
	return v
}

func (k Context) WithTimeout(timeout time.Duration) (Context, gocontext.CancelFunc) {
	ctx, cancelFunc := k.Context.WithTimeout(timeout)
	return Context{
		Context: ctx,
	}, cancelFunc
}

// WithDebug enables debug (and optionally trace) logging for this context only.
func (k Context) WithDebug(trace bool) Context {
	return Context{
		Context: k.WithValue("debug", true).WithValue("trace", trace),
	}
}

func (k Context) WithDB(db *gorm.DB) Context {
	return Context{
		Context: k.WithValue("db", db),
	}
}

func (k Context) DB() *gorm.DB {
	v, ok := k.Value("db").(*gorm.DB)
	if !ok || v == nil {
		return nil
	}
	return v.WithContext(k)
}

func (k Context) WithUser(user string) Context {
	k.GetSpan().SetAttributes(attribute.String("user", user))
	return Context{
		Context: k.WithValue("user", user),
	}
}

func (k Context) User() string {
	v, _ := k.Value("user").(string)
	return v
}

func (k Context) WithReport(id string) Context {
	return Context{
		Context: k.WithValue("report", id),
	}
}

func (k Context) ReportID() string {
	v, _ := k.Value("report").(string)
	return v
}

func (k Context) WithProperties(props map[string]string) Context {
	return Context{
		Context: k.WithValue("properties", props),
	}
}

func (k Context) StartSpan(name string) (Context, trace.Span) {
	ctx, span := k.Context.StartSpan(name)
	span.SetAttributes(
		attribute.String("report", k.ReportID()),
		attribute.String("user", k.User()),
	)

	return Context{
		Context: ctx,
	}, span
}

// Wrap moves the database, user and report of k onto a new base context.
func (k Context) Wrap(ctx gocontext.Context) Context {
	out := New(ctx, commons.WithTracer(k.GetTracer()))
	if db, ok := k.Value("db").(*gorm.DB); ok {
		out = out.WithDB(db)
	}
	if props, ok := k.Value("properties").(map[string]string); ok {
		out = out.WithProperties(props)
	}
	return out.WithUser(k.User()).WithReport(k.ReportID())
}
