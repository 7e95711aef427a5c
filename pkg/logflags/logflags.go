// Package logflags configures logging for the other packages in this
// project. Each layer gets its own logger, enabled individually through the
// --log-output flag.
package logflags

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	colorable "github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

var inferior = false
var events = false
var spawning = false
var rpc = false

var logOut io.WriteCloser

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.PanicLevel
	}
	if logOut != nil {
		logger.Logger.Out = logOut
	} else {
		logger.Logger.Out = colorable.NewColorableStderr()
	}
	return logger
}

// Inferior returns true if the process control layer should log.
func Inferior() bool {
	return inferior
}

// InferiorLogger returns a logger for the process control layer.
func InferiorLogger() *logrus.Entry {
	return makeLogger(inferior, logrus.Fields{"layer": "inferior"})
}

// Events returns true if native debug events should be logged as they are
// classified.
func Events() bool {
	return events
}

// EventsLogger returns a logger for native debug event classification.
func EventsLogger() *logrus.Entry {
	return makeLogger(events, logrus.Fields{"layer": "inferior", "kind": "events"})
}

// Spawn returns true if debuggee spawning should be logged.
func Spawn() bool {
	return spawning
}

// SpawnLogger returns a logger for the process spawner.
func SpawnLogger() *logrus.Entry {
	return makeLogger(spawning, logrus.Fields{"layer": "spawn"})
}

// RPC returns true if the protocol layer should log.
func RPC() bool {
	return rpc
}

// RPCLogger returns a logger for the protocol layer.
func RPCLogger() *logrus.Entry {
	return makeLogger(rpc, logrus.Fields{"layer": "rpc"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets the logging flags based on the contents of logstr. If logDest
// is not empty logs are redirected there: either a file descriptor number or
// a file path.
func Setup(logFlag bool, logstr string, logDest string) error {
	if logDest != "" {
		n, err := strconv.Atoi(logDest)
		if err == nil {
			logOut = os.NewFile(uintptr(n), "dbgsrv-logs")
		} else {
			fh, err := os.Create(logDest)
			if err != nil {
				return fmt.Errorf("could not create log file: %v", err)
			}
			logOut = fh
		}
	}
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(io.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "inferior"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "inferior":
			inferior = true
		case "events":
			events = true
		case "spawn":
			spawning = true
		case "rpc":
			rpc = true
		default:
			return fmt.Errorf("unknown log output %q", logcmd)
		}
	}
	return nil
}

// Close closes the logger output.
func Close() {
	if logOut != nil {
		logOut.Close()
	}
}
