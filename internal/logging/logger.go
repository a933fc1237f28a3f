// Package logging is a thin wrapper around logrus shared by the core
// pipeline, the RTP ingest adapter, the inspection service and the CLI.
//
// Every call takes a "subject" — usually the struct emitting the log —
// so that log lines can be grepped by component without callers having
// to format that prefix themselves.
package logging

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"
)

type stringer interface {
	String() string
}

type logPair struct {
	logFn func(...any)
	obj   string
	msg   string
}

const logSize = 1000

const subjectWidth = 20

var logCh = make(chan logPair, logSize)

func subjectToString(obj any) (objStr string) {
	switch v := obj.(type) {
	case nil:
		objStr = "NIL"
	case string:
		objStr = v
	case stringer:
		objStr = v.String()
	default:
		objStr = reflect.TypeOf(obj).String()
	}
	return
}

// Init configures the global logrus level/formatter and starts the
// background writer goroutine. Call once at process startup (CLI main,
// service main); core packages never call it themselves.
func Init(lvl logrus.Level) {
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		PadLevelText:    true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	go func() {
		sb := new(bytes.Buffer)
		for lp := range logCh {
			if len(lp.obj) > subjectWidth {
				lp.obj = lp.obj[:subjectWidth]
			}
			sb.WriteString(fmt.Sprintf("|%20s| %s", lp.obj, lp.msg))
			lp.logFn(sb.String())
			sb.Reset()
		}
	}()
}

func Debug(subject any, message string) {
	if logrus.GetLevel() < logrus.DebugLevel {
		return
	}
	logCh <- logPair{logFn: logrus.Debug, obj: subjectToString(subject), msg: message}
}

func Debugf(subject any, format string, args ...any) {
	if logrus.GetLevel() < logrus.DebugLevel {
		return
	}
	logCh <- logPair{logFn: logrus.Debug, obj: subjectToString(subject), msg: fmt.Sprintf(format, args...)}
}

func Warning(subject any, message string) {
	if logrus.GetLevel() < logrus.WarnLevel {
		return
	}
	logCh <- logPair{logFn: logrus.Warning, obj: subjectToString(subject), msg: message}
}

func Warningf(subject any, format string, args ...any) {
	if logrus.GetLevel() < logrus.WarnLevel {
		return
	}
	logCh <- logPair{logFn: logrus.Warning, obj: subjectToString(subject), msg: fmt.Sprintf(format, args...)}
}

func Error(subject any, message string) {
	if logrus.GetLevel() < logrus.ErrorLevel {
		return
	}
	logCh <- logPair{logFn: logrus.Error, obj: subjectToString(subject), msg: message}
}

func Errorf(subject any, format string, args ...any) {
	if logrus.GetLevel() < logrus.ErrorLevel {
		return
	}
	logCh <- logPair{logFn: logrus.Error, obj: subjectToString(subject), msg: fmt.Sprintf(format, args...)}
}
