package logsvc

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/user"
)

// RollbarLogger writes structured entries with zap and reports them to rollbar when enabled.
type RollbarLogger struct {
	zl      *zap.Logger
	rollbar *rollbar.Client
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(conf *core.Config) (*RollbarLogger, error) {
	zconf := zap.NewProductionConfig()
	if conf.Debug {
		zconf = zap.NewDevelopmentConfig()
		zconf.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zl, err := zconf.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, errors.Wrap(err, "building zap logger")
	}
	return NewLogger(zl, conf), nil
}

// NewLogger wraps an existing zap logger; rollbar reporting stays off in debug or without a token.
func NewLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	client := rollbar.New(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetEnabled(!conf.Debug && conf.RollbarToken != "")
	client.SetStackTracer(rollbarerrors.StackTracer)
	return &RollbarLogger{
		zl:      zl.With(zap.String("env", conf.Env), zap.String("build", conf.Build)),
		rollbar: client,
	}
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.rollbar.SetEnabled(enabled)
}

// Close flushes pending zap entries and rollbar reports.
func (l *RollbarLogger) Close() {
	_ = l.zl.Sync()
	l.rollbar.Close()
}

// report is what a log call sends to rollbar.
type report struct {
	ctx    context.Context // carries the rollbar person
	err    error
	extras map[string]interface{}
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l *RollbarLogger) prepare(msg string, args []interface{}) (report, []zap.Field) {
	var usrSet bool
	rep := report{ctx: context.Background()}
	fields := make([]zap.Field, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			// only report one User
			if !usrSet {
				rep.ctx = rollbar.NewPersonContext(rep.ctx, &rollbar.Person{
					Id:       v.ID,
					Username: v.Username,
					Email:    v.Email,
				})
				fields = append(fields, zap.String("user_id", v.ID))
				usrSet = true
			}
		case error:
			if rep.err == nil {
				rep.err = v
			}
			fields = append(fields, zap.Error(v))
		case map[string]interface{}:
			if rep.extras == nil {
				rep.extras = make(map[string]interface{}, len(v)+1)
			}
			for k, val := range v {
				rep.extras[k] = val
			}
			fields = append(fields, zap.Any("extras", v))
		default:
			fields = append(fields, zap.Any("arg", v))
		}
	}
	if rep.err != nil {
		if rep.extras == nil {
			rep.extras = make(map[string]interface{}, 1)
		}
		rep.extras["message"] = msg
	}
	return rep, fields
}

func (l *RollbarLogger) send(level, msg string, rep report) {
	if rep.err != nil {
		l.rollbar.ErrorWithExtrasAndContext(rep.ctx, level, rep.err, rep.extras)
		return
	}
	l.rollbar.MessageWithExtrasAndContext(rep.ctx, level, msg, rep.extras)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	rep, fields := l.prepare(msg, args)
	l.send(rollbar.DEBUG, msg, rep)
	l.zl.Debug(msg, fields...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rep, fields := l.prepare(msg, args)
	l.send(rollbar.INFO, msg, rep)
	l.zl.Info(msg, fields...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rep, fields := l.prepare(msg, args)
	l.send(rollbar.WARN, msg, rep)
	l.zl.Warn(msg, fields...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rep, fields := l.prepare(msg, args)
	l.send(rollbar.ERR, msg, rep)
	l.zl.Error(msg, fields...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rep, fields := l.prepare(msg, args)
	l.send(rollbar.CRIT, msg, rep)
	l.rollbar.Wait()
	l.zl.Fatal(msg, fields...)
}
