// Package log provides leveled logging with systemd-style priority prefixes.
//
// Time/Date are omitted by default because systemd journal adds them for us
// (override with SetLogDateTime(true) when running outside of systemd).
// Prefixes follow https://www.freedesktop.org/software/systemd/man/sd-daemon.html
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

var logDateTime bool

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
)

const (
	DebugPrefix = "<7>[DEBUG]   "
	InfoPrefix  = "<6>[INFO]    "
	WarnPrefix  = "<4>[WARNING] "
	ErrPrefix   = "<3>[ERROR]   "
)

var (
	debugLog = log.New(DebugWriter, DebugPrefix, 0)
	infoLog  = log.New(InfoWriter, InfoPrefix, 0)
	warnLog  = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	errLog   = log.New(ErrWriter, ErrPrefix, log.Llongfile)

	debugTimeLog = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	infoTimeLog  = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	warnTimeLog  = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	errTimeLog   = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
)

// SetLogLevel discards writers below lvl ("debug", "info", "warn", "err"/"fatal").
func SetLogLevel(lvl string) {
	switch lvl {
	case "err", "fatal":
		WarnWriter = io.Discard
		fallthrough
	case "warn":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
	case "debug":
	default:
		fmt.Fprintf(os.Stderr, "pkg/log: invalid loglevel %q, using \"debug\"\n", lvl)
		SetLogLevel("debug")
		return
	}
	debugLog.SetOutput(DebugWriter)
	infoLog.SetOutput(InfoWriter)
	warnLog.SetOutput(WarnWriter)
	errLog.SetOutput(ErrWriter)
	debugTimeLog.SetOutput(DebugWriter)
	infoTimeLog.SetOutput(InfoWriter)
	warnTimeLog.SetOutput(WarnWriter)
	errTimeLog.SetOutput(ErrWriter)
}

func SetLogDateTime(logdate bool) {
	logDateTime = logdate
}

func pick(d, t *log.Logger) *log.Logger {
	if logDateTime {
		return t
	}
	return d
}

func Debug(v ...interface{}) {
	if DebugWriter != io.Discard {
		pick(debugLog, debugTimeLog).Output(2, fmt.Sprint(v...))
	}
}

func Info(v ...interface{}) {
	if InfoWriter != io.Discard {
		pick(infoLog, infoTimeLog).Output(2, fmt.Sprint(v...))
	}
}

func Warn(v ...interface{}) {
	if WarnWriter != io.Discard {
		pick(warnLog, warnTimeLog).Output(2, fmt.Sprint(v...))
	}
}

func Error(v ...interface{}) {
	if ErrWriter != io.Discard {
		pick(errLog, errTimeLog).Output(2, fmt.Sprint(v...))
	}
}

// Fatal logs at error level and exits the process.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

func Debugf(format string, v ...interface{}) {
	if DebugWriter != io.Discard {
		pick(debugLog, debugTimeLog).Output(2, fmt.Sprintf(format, v...))
	}
}

func Infof(format string, v ...interface{}) {
	if InfoWriter != io.Discard {
		pick(infoLog, infoTimeLog).Output(2, fmt.Sprintf(format, v...))
	}
}

func Warnf(format string, v ...interface{}) {
	if WarnWriter != io.Discard {
		pick(warnLog, warnTimeLog).Output(2, fmt.Sprintf(format, v...))
	}
}

func Errorf(format string, v ...interface{}) {
	if ErrWriter != io.Discard {
		pick(errLog, errTimeLog).Output(2, fmt.Sprintf(format, v...))
	}
}

func Fatalf(format string, v ...interface{}) {
	Errorf(format, v...)
	os.Exit(1)
}
