// Package nlog is voxrelay's logger: leveled severities, an optional numbered
// debug verbosity (matching the Logging.DebugLevel knob pysiriproxy exposed
// per-line), unbuffered writes to per-severity files in a configured
// directory, and size-based rotation of those files.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kelsonai/voxrelay/cmn/mono"
	jsoniter "github.com/json-iterator/go"
)

const maxSize = 16 * 1024 * 1024 // rotate after this many bytes written

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevChar = [...]byte{'I', 'W', 'E'}

type nlog struct {
	mw      sync.Mutex
	file    *os.File
	written int64
	last    int64
}

var (
	toStderr     bool
	alsoToStderr bool
	debugLevel   atomic.Int64
	logDir       string

	nlogs = [...]*nlog{{}, {}, {}}

	onceInitFiles sync.Once
)

// InitFlags registers the logging-related command-line flags on flset,
// mirroring the Logging.* configuration section.
func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", false, "log to standard error instead of files")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as files")
	flset.Func("debuglevel", "numbered debug verbosity (0 disables debug logging)", func(s string) error {
		lvl, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		debugLevel.Store(int64(lvl))
		return nil
	})
}

// SetLogDir points the logger at a directory for its rotated log files.
// Call before the first log line; a zero-value dir keeps logging to stderr.
func SetLogDir(dir string) { logDir = dir }

// SetDebugLevel overrides the debug verbosity (e.g. when Logging.DebugLevel
// is supplied via the config file rather than the -debuglevel flag).
func SetDebugLevel(lvl int) { debugLevel.Store(int64(lvl)) }

func initFiles() {
	if logDir == "" {
		toStderr = true
		return
	}
	for sev := range nlogs {
		name := filepath.Join(logDir, fmt.Sprintf("voxrelay.%s.log", sevName(severity(sev))))
		f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			toStderr = true
			return
		}
		nlogs[sev].file = f
	}
}

func sevName(sev severity) string {
	switch sev {
	case sevWarn:
		return "warn"
	case sevErr:
		return "err"
	default:
		return "info"
	}
}

func log(sev severity, format string, args ...any) {
	onceInitFiles.Do(initFiles)

	line := formatLine(sev, format, args...)

	if toStderr || alsoToStderr || sev >= sevErr {
		os.Stderr.WriteString(line)
	}
	if toStderr {
		return
	}

	// a severity-N line also lands in every file of severity <= N, matching
	// the teacher's "warnings appear in both WARNING and INFO" convention.
	for s := severity(0); s <= sev; s++ {
		n := nlogs[s]
		n.mw.Lock()
		n.write(line)
		n.mw.Unlock()
	}
}

func (n *nlog) write(line string) {
	if n.file == nil {
		return
	}
	written, err := n.file.WriteString(line)
	if err != nil {
		return
	}
	n.written += int64(written)
	n.last = mono.NanoTime()
	if n.written >= maxSize {
		n.rotateLocked()
	}
}

func (n *nlog) rotateLocked() {
	if n.file == nil {
		return
	}
	name := n.file.Name()
	n.file.Close()
	os.Rename(name, name+"."+time.Now().Format("20060102-150405"))
	if f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
		n.file = f
	}
	n.written = 0
}

func formatLine(sev severity, format string, args ...any) string {
	prefix := fmt.Sprintf("%c %s ", sevChar[sev], time.Now().Format("15:04:05.000000"))
	var body string
	if format == "" {
		body = fmt.Sprintln(args...)
	} else {
		body = fmt.Sprintf(format, args...)
		if len(body) == 0 || body[len(body)-1] != '\n' {
			body += "\n"
		}
	}
	return prefix + body
}

func Infof(format string, args ...any)    { log(sevInfo, format, args...) }
func Infoln(args ...any)                  { log(sevInfo, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, format, args...) }
func Warningln(args ...any)               { log(sevWarn, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, format, args...) }
func Errorln(args ...any)                 { log(sevErr, "", args...) }

// Debugf logs at the given numbered debug level, gated by the configured
// Logging.DebugLevel (0 disables all debug lines), matching pysiriproxy's
// self.log.debug(msg, level=N) convention.
func Debugf(level int, format string, args ...any) {
	if int64(level) > debugLevel.Load() {
		return
	}
	log(sevInfo, format, args...)
}

// Debugj logs tag followed by v rendered as compact JSON, gated the same
// way Debugf is. For structured values (a loaded config, a plugin
// manifest) where building a format string by hand would just be a worse
// JSON encoder; mirrors pysiriproxy's unconditional self.log.debug(obj)
// but opt-in on Logging.DebugLevel like every other debug line here.
func Debugj(level int, tag string, v any) {
	if int64(level) > debugLevel.Load() {
		return
	}
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		log(sevInfo, "%s: <unrenderable: %v>", tag, err)
		return
	}
	log(sevInfo, "%s: %s", tag, b)
}

// Flush forces buffered lines to disk; voxrelay's writer is unbuffered past
// the os.File itself, so Flush only syncs.
func Flush() {
	for _, n := range nlogs {
		n.mw.Lock()
		if n.file != nil {
			n.file.Sync()
		}
		n.mw.Unlock()
	}
}

// Since reports how long it has been since the last line was written to the
// error log file, or 0 if none has been written yet.
func Since() time.Duration {
	n := nlogs[sevErr]
	n.mw.Lock()
	defer n.mw.Unlock()
	if n.last == 0 {
		return 0
	}
	return time.Duration(mono.NanoTime() - n.last)
}
