// Package logging sets up timestamped diagnostic output and provides writers for script output.
// All logging is done with the standard logger, lgr is installed behind it. Without debug mode
// everything is discarded, extensions run inside a host process and must stay silent.
package logging

import (
	"io"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
)

// Setup configures lgr and the standard logger for the extension. In debug mode logs are timestamped
// with milliseconds, carry caller info and colorized levels, secrets are masked.
func Setup(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)} // default to discard
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.CallerFile, lgr.CallerFunc}
	}
	setup(logOpts, secrets)
}

// SetupHost configures logging of the command line host, info and above are always shown
func SetupHost(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}
	setup(logOpts, secrets)
}

func setup(logOpts []lgr.Option, secrets []string) {
	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}

	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
