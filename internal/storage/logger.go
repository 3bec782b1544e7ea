package storage

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

// badgerLogger routes badger's printf-style logging into logr.
type badgerLogger struct {
	log logr.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(nil, l.msg(format, args))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Info(l.msg(format, args), "level", "warning")
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.V(1).Info(l.msg(format, args))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.V(2).Info(l.msg(format, args))
}

func (l badgerLogger) msg(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
