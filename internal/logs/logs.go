package logs

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Logger — общий логгер процесса.
var Logger = logrus.New()

// dbLogger — отдельный лог ошибок подключения к БД (аналог mongoErrLog).
var dbLogger = logrus.New()

type Options struct {
	Level  string
	Format string // "text" | "json"
	File   string
}

// Init настраивает Logger по опциям из конфига.
func Init(o Options) {
	lvl, err := logrus.ParseLevel(o.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	if o.Format == "json" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
		dbLogger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		dbLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	Logger.SetOutput(output(o.File, os.Stdout))
	dbLogger.SetOutput(output(dbErrFile(o.File), os.Stderr))
}

func output(path string, fallback io.Writer) io.Writer {
	if path == "" {
		return fallback
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fallback
	}
	return f
}

func dbErrFile(base string) string {
	if base == "" {
		return ""
	}
	return base + ".dberr"
}

// DBError пишет ошибку подключения к БД с метаданными соединения.
func DBError(err error, driver string) {
	fields := logrus.Fields{"driver": driver}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		fields["syscall"] = opErr.Op
		if opErr.Addr != nil {
			fields["hostname"] = opErr.Addr.String()
		}
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		fields["errno"] = int(errno)
		fields["code"] = errno.Error()
	}
	if host, herr := os.Hostname(); herr == nil {
		fields["local_host"] = host
	}

	dbLogger.WithFields(fields).Errorf("db connect failed: %v", err)
}
