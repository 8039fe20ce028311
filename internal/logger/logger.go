package logger

import (
	"go.uber.org/zap"
)

// Log is the process-wide logger. Init must run before anything logs;
// the zero value is a usable no-op so tests don't have to care.
var Log = zap.NewNop()

func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	Log = l
	return nil
}

func Sync() {
	_ = Log.Sync()
}
