package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// impl is the Logger handed out by the constructors. Subloggers get their own name and level but
// share the appender set of the logger they were made from.
type impl struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	appenders *appenderSet
}

type appenderSet struct {
	mu   sync.RWMutex
	list []Appender
}

func newImpl(name string, level Level, inUTC bool, appenders ...Appender) *impl {
	return &impl{
		name:      name,
		level:     NewAtomicLevelAt(level),
		inUTC:     inUTC,
		appenders: &appenderSet{list: appenders},
	}
}

func (set *appenderSet) snapshot() []Appender {
	set.mu.RLock()
	defer set.mu.RUnlock()
	return set.list
}

// add replaces the list rather than appending in place so snapshots stay stable.
func (set *appenderSet) add(appender Appender) {
	set.mu.Lock()
	defer set.mu.Unlock()
	next := make([]Appender, 0, len(set.list)+1)
	set.list = append(append(next, set.list...), appender)
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders.add(appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{
		name:      name,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var errs error
	for _, appender := range imp.appenders.snapshot() {
		errs = multierr.Append(errs, appender.Sync())
	}
	return errs
}

// enabled reports whether a statement at `level` is written. A context in debug mode forces it.
func (imp *impl) enabled(ctx context.Context, level Level) bool {
	return level >= imp.level.Get() || (ctx != nil && IsDebugMode(ctx))
}

// emit writes one entry to every appender. It must be called exactly two frames below the public
// logging method so the recorded caller is the user's code.
func (imp *impl) emit(level Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    msg,
		Caller:     getCaller(),
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	for _, appender := range imp.appenders.snapshot() {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func (imp *impl) print(ctx context.Context, level Level, args ...interface{}) {
	if imp.enabled(ctx, level) {
		imp.emit(level, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) printf(ctx context.Context, level Level, template string, args ...interface{}) {
	if imp.enabled(ctx, level) {
		imp.emit(level, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) printw(ctx context.Context, level Level, msg string, keysAndValues ...interface{}) {
	if imp.enabled(ctx, level) {
		imp.emit(level, msg, pairs(keysAndValues))
	}
}

// pairs turns alternating keys and values into zap fields. A trailing key without a value is kept
// with an error in its place.
func pairs(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (imp *impl) Debug(args ...interface{}) { imp.print(context.Background(), DEBUG, args...) }

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.printf(context.Background(), DEBUG, template, args...)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.printw(context.Background(), DEBUG, msg, keysAndValues...)
}

func (imp *impl) CDebug(ctx context.Context, args ...interface{}) { imp.print(ctx, DEBUG, args...) }

func (imp *impl) CDebugf(ctx context.Context, template string, args ...interface{}) {
	imp.printf(ctx, DEBUG, template, args...)
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.printw(ctx, DEBUG, msg, keysAndValues...)
}

func (imp *impl) Info(args ...interface{}) { imp.print(context.Background(), INFO, args...) }

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.printf(context.Background(), INFO, template, args...)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.printw(context.Background(), INFO, msg, keysAndValues...)
}

func (imp *impl) CInfow(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.printw(ctx, INFO, msg, keysAndValues...)
}

func (imp *impl) Warn(args ...interface{}) { imp.print(context.Background(), WARN, args...) }

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.printf(context.Background(), WARN, template, args...)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.printw(context.Background(), WARN, msg, keysAndValues...)
}

func (imp *impl) CWarnw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.printw(ctx, WARN, msg, keysAndValues...)
}

func (imp *impl) Error(args ...interface{}) { imp.print(context.Background(), ERROR, args...) }

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.printf(context.Background(), ERROR, template, args...)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.printw(context.Background(), ERROR, msg, keysAndValues...)
}

func (imp *impl) CErrorw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.printw(ctx, ERROR, msg, keysAndValues...)
}

// getCaller returns the location of the statement that logged, e.g. "logging/impl_test.go:36".
func getCaller() zapcore.EntryCaller {
	// getCaller, emit, print*, the public method, then the caller.
	const skip = 4
	var caller zapcore.EntryCaller
	var ok bool
	caller.PC, caller.File, caller.Line, ok = runtime.Caller(skip)
	if !ok {
		return caller
	}
	caller.Defined = true
	if fn := runtime.FuncForPC(caller.PC); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
