// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package respond

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProgramName prefixes every diagnostic.
const ProgramName = "protoc-gen-tsd"

// NewLogger builds a logger writing to out, which must not be stdout: that's
// where the response goes.  Verbosity 0 logs errors only; each level above
// that enables the matching V-level.
func NewLogger(out io.Writer, verbosity int) logr.Logger {
	level := zapcore.ErrorLevel
	if verbosity > 0 {
		level = zapcore.Level(-verbosity)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(out),
		zap.NewAtomicLevelAt(level),
	)
	return zapr.NewLogger(zap.New(core)).WithName(ProgramName)
}

// kinded errors name their error kind in diagnostics.
type kinded interface {
	error
	Kind() string
}

// ErrorKind returns the kind of the outermost kinded error in err's chain, or
// "error" if there's none.
func ErrorKind(err error) string {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "error"
}

// Diagnose writes the single diagnostic line for a fatal error.
func Diagnose(out io.Writer, err error) {
	prefix := color.New(color.FgRed, color.Bold).Sprintf("%s: %s:", ProgramName, ErrorKind(err))
	fmt.Fprintf(out, "%s %v\n", prefix, err)
}
