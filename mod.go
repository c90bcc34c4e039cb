// Package bazaar is the root of a marketplace ledger run by native contracts.
// It holds the process-wide logger and the list of prometheus collectors that
// the packages append to.
package bazaar

import (
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ContractArg is the argument key in the transaction to look up a contract.
const ContractArg = "go.dedis.ch/bazaar.ContractArg"

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(zerolog.DebugLevel)

// PromCollectors exposes the prometheus collectors of the packages. A
// collector is registered only once the query server starts.
var PromCollectors []prometheus.Collector

// LogFile describes a rotating log file that receives a JSON copy of every log
// line.
type LogFile struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// SetupLogger replaces the global logger with one at the given level. When
// the file path is set, the output is duplicated to a rotating file.
func SetupLogger(level string, file LogFile) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	var out io.Writer = logout

	if file.Path != "" {
		out = zerolog.MultiLevelWriter(logout, &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
		})
	}

	Logger = zerolog.New(out).
		With().Timestamp().Logger().
		With().Caller().Logger().
		Level(lvl)

	return nil
}
