// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package logging provides structured logging for memora, wrapping zap the
// way github.com/obot-platform/discobot's proxy/internal/logger wraps it for
// its own CLI-adjacent components.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the package-global logger. It defaults to warn level so a normal
// lookup/get/insert invocation stays quiet; -v raises it to debug.
var L = mustBuild(zapcore.WarnLevel)

func mustBuild(level zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	encoder := zapcore.NewConsoleEncoder(cfg)
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level)
	return zap.New(core).Sugar()
}

// SetVerbose reconfigures the global logger's level. Called once from the
// CLI root command based on the -v/--verbose flag.
func SetVerbose(verbose bool) {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	L = mustBuild(level)
}
