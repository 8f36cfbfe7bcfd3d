package store

import (
	gocontext "context"
	"errors"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gLogger "gorm.io/gorm/logger"

	"github.com/flanksource/reports/context"
)

const (
	Debug = "debug"
	Trace = "trace"
)

func DefaultGormConfig(ctx context.Context) *gorm.Config {
	return &gorm.Config{
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		Logger: NewGormLogger(logLevel(ctx)),
	}
}

func logLevel(ctx context.Context) string {
	if level := ctx.Properties().String("db.log.level", ""); level != "" {
		return level
	}
	switch {
	case ctx.IsTrace():
		return Trace
	case ctx.IsDebug():
		return Debug
	}
	return ""
}

type gormLogger struct {
	logger        logger.Logger
	level         gLogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger logs SQL through logrus. Debug and trace log every
// statement, anything else only errors and slow queries.
func NewGormLogger(level string) gLogger.Interface {
	l := logrus.StandardLogger()
	l.SetFormatter(&logrus.TextFormatter{
		DisableQuote: true,
	})

	g := &gormLogger{
		logger:        logger.NewLogrusLogger(l),
		slowThreshold: time.Second,
	}
	switch level {
	case Trace, Debug, "info":
		return g.LogMode(gLogger.Info)
	case "silent":
		return g.LogMode(gLogger.Silent)
	}
	return g.LogMode(gLogger.Warn)
}

func (t *gormLogger) LogMode(level gLogger.LogLevel) gLogger.Interface {
	t.level = level

	switch level {
	case gLogger.Silent:
		t.logger.SetLogLevel(-1)
	case gLogger.Error:
		t.logger.SetLogLevel(1)
	case gLogger.Warn:
		t.logger.SetLogLevel(2)
	default:
		t.logger.SetLogLevel(3)
	}

	return t
}

func (t *gormLogger) Info(_ gocontext.Context, msg string, data ...any) {
	t.logger.Infof(msg, data...)
}

func (t *gormLogger) Warn(_ gocontext.Context, msg string, data ...any) {
	t.logger.Warnf(msg, data...)
}

func (t *gormLogger) Error(_ gocontext.Context, msg string, data ...any) {
	t.logger.Errorf(msg, data...)
}

func (t *gormLogger) Trace(_ gocontext.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if t.level <= gLogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && t.level >= gLogger.Error && !errors.Is(err, gLogger.ErrRecordNotFound):
		sql, rows := fc()
		t.logger.WithValues("rows", rows, "elapsed", elapsed).Errorf("%s: %v", sql, err)
	case t.slowThreshold != 0 && elapsed > t.slowThreshold && t.level >= gLogger.Warn:
		sql, rows := fc()
		t.logger.WithValues("rows", rows, "slow", t.slowThreshold).Warnf("%s", sql)
	case t.level == gLogger.Info:
		sql, rows := fc()
		t.logger.WithValues("rows", rows, "elapsed", elapsed).Infof("%s", sql)
	}
}
