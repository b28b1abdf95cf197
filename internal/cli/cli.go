// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cli implements the iofn command line tool.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/z5labs/iofn/config"
	"github.com/z5labs/iofn/internal/logging"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// EnvPrefix prefixes every environment variable read as config.
const EnvPrefix = "IOFN_"

// Config is the configuration of the iofn command.
type Config struct {
	Logging struct {
		Level  slog.Level `config:"level"`
		Format string     `config:"format"`
	} `config:"logging"`

	Tracing struct {
		Enabled     bool   `config:"enabled"`
		ServiceName string `config:"service_name"`
	} `config:"tracing"`

	File struct {
		Charset        string        `config:"charset"`
		Lock           bool          `config:"lock"`
		LockRetryDelay time.Duration `config:"lock_retry_delay"`
	} `config:"file"`

	Process struct {
		Charset    string `config:"charset"`
		PowerShell string `config:"powershell"`
	} `config:"process"`

	HTTP struct {
		Timeout    time.Duration `config:"timeout"`
		MaxRetries int           `config:"max_retries"`
		TripAfter  uint32        `config:"trip_after"`
	} `config:"http"`
}

// Hook is run once a command completes.
type Hook func(context.Context) error

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context) error {
	errs := make([]error, 0, len(mh))
	for _, h := range mh {
		err := h(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type app struct {
	configPath string
	cfg        Config
	log        *slog.Logger
	logHandler slog.Handler
	postRun    multiHook
}

// New returns the root command of the iofn command line tool.
func New() *cobra.Command {
	a := &app{
		log:        logging.New(nil),
		logHandler: logging.NoopHandler{},
	}

	root := &cobra.Command{
		Use:          "iofn",
		Short:        "Read files, processes and HTTP bodies as text",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.postRun.Run(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML or JSON config file")

	root.AddCommand(
		catCommand(a),
		linesCommand(a),
		csvCommand(a),
		execCommand(a),
		fetchCommand(a),
		regCommand(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	var srcs []config.Source
	if a.configPath != "" {
		src, err := fileSource(a.configPath)
		if err != nil {
			return err
		}
		srcs = append(srcs, src)
	}
	srcs = append(srcs, config.FromEnv(EnvPrefix))

	m, err := config.Read(srcs...)
	if err != nil {
		return err
	}
	err = m.Unmarshal(&a.cfg)
	if err != nil {
		return err
	}

	a.logHandler = logging.NewTraceHandler(newLogHandler(cmd.ErrOrStderr(), a.cfg))
	a.log = slog.New(a.logHandler)

	if !a.cfg.Tracing.Enabled {
		return nil
	}
	shutdown, err := initTracing(cmd.ErrOrStderr(), a.cfg)
	if err != nil {
		return err
	}
	a.postRun = append(a.postRun, shutdown)
	return nil
}

// UnsupportedConfigFormatError occurs if a config file isn't YAML or JSON.
type UnsupportedConfigFormatError struct {
	Path string
}

// Error implements the [builtin.error] interface.
func (e UnsupportedConfigFormatError) Error() string {
	return "unsupported config file format: " + e.Path
}

func fileSource(path string) (config.Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	// the renderer closes the file once it's read
	f := config.NewFileReader(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
	r := config.RenderTextTemplate(f)
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".yaml", ".yml":
		return config.FromYaml(r), nil
	case ".json":
		return config.FromJson(r), nil
	default:
		return nil, UnsupportedConfigFormatError{Path: path}
	}
}

func newLogHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.Logging.Level}
	masks := map[string]logging.MaskFunc{"url": logging.RedactURL}
	if cfg.Logging.Format == "json" {
		return logging.NewMaskHandler(slog.NewJSONHandler(w, opts), masks)
	}
	return logging.NewMaskHandler(slog.NewTextHandler(w, opts), masks)
}

func initTracing(w io.Writer, cfg Config) (Hook, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
	)
	if err != nil {
		return nil, err
	}

	name := cfg.Tracing.ServiceName
	if name == "" {
		name = "iofn"
	}
	res, err := sdkresource.New(
		context.Background(),
		sdkresource.WithTelemetrySDK(),
		sdkresource.WithAttributes(
			semconv.ServiceName(name),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
