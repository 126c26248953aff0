// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package cmdutils

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// LogOptions are the stock logging flags shared by all commands.
type LogOptions struct {
	Quiet bool
	Debug bool
	Level string

	Zap zap.Options
}

// AddFlags registers the logging flags, including the zap encoder flags.
func (o *LogOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Quiet, "quiet", false, "Only log errors.")
	fs.BoolVar(&o.Debug, "debug", false, "Log debug messages. Takes precedence over --loglevel.")
	fs.StringVar(&o.Level, "loglevel", "", "Log level: debug, info, warning, error or critical. Defaults to info, or to --zap-log-level when that is set.")

	goFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	o.Zap.BindFlags(goFlags)
	fs.AddGoFlagSet(goFlags)
}

// ZapLevel resolves the effective level. logr has no level above error, so
// critical logs the same as error.
func (o *LogOptions) ZapLevel() (zapcore.Level, error) {
	switch {
	case o.Debug:
		return zapcore.DebugLevel, nil
	case o.Quiet:
		return zapcore.ErrorLevel, nil
	}
	switch strings.ToLower(o.Level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error", "critical":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", o.Level)
	}
}

// Logger builds the logger writing to w. --zap-log-level applies only when
// none of --quiet, --debug and --loglevel is given.
func (o *LogOptions) Logger(w io.Writer) (logr.Logger, error) {
	level, err := o.ZapLevel()
	if err != nil {
		return logr.Discard(), err
	}
	opts := o.Zap
	if opts.Level == nil || o.Debug || o.Quiet || o.Level != "" {
		opts.Level = level
	}
	opts.DestWriter = w
	return zap.New(zap.UseFlagOptions(&opts)), nil
}
