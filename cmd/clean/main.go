package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/scoretable/internal/adapters/tablefile"
	app "github.com/okian/scoretable/internal/app"
	"github.com/okian/scoretable/internal/config"
	"github.com/okian/scoretable/internal/domain/record"
	"github.com/okian/scoretable/pkg/logger"
)

// File permission constants.
const (
	outputFilePermission = 0o644
	directoryPermission  = 0o750
)

var errNoInput = errors.New("-in is required")

// options are the resolved command-line settings.
type options struct {
	input    string
	outDir   string
	prefix   string
	timezone string
}

func main() {
	var (
		input    = flag.String("in", "", "Raw table export (.csv or .xlsx)")
		outDir   = flag.String("out", ".", "Directory for the cleaned CSV")
		prefix   = flag.String("prefix", "", "Output name prefix (default: input name before the first underscore)")
		timezone = flag.String("tz", "", "Timezone dating the output name (default: output_timezone config)")
	)
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = applyLogLevel(ctx, cfg.LogLevel)

	opts := options{input: *input, outDir: *outDir, prefix: *prefix, timezone: *timezone}
	if opts.timezone == "" {
		opts.timezone = cfg.OutputTimezone
	}

	path, report, err := run(ctx, opts, time.Now())
	if err != nil {
		logger.Get().Error(ctx, "clean failed", logger.Error(err))
		os.Exit(1)
	}
	logger.Get().Info(ctx, "cleaned table written",
		logger.String("output", path),
		logger.Int("cells", report.Cells),
		logger.Int("repaired", report.Repaired()),
		logger.Int("date_fixed", report.DateFixed),
		logger.Int("microsecond_fixed", report.MicrosecondFixed),
		logger.Int("serial_fixed", report.SerialFixed),
		logger.Int("format_fixed", report.FormatFixed),
		logger.Int("absent", report.Absent),
	)
}

// run cleans opts.input and writes <PREFIX>_ALL_<YYYYMMDD>.csv into
// opts.outDir, returning the written path.
func run(ctx context.Context, opts options, now time.Time) (string, record.Report, error) {
	if opts.input == "" {
		return "", record.Report{}, errNoInput
	}
	loc, err := tablefile.Location(opts.timezone)
	if err != nil {
		return "", record.Report{}, err
	}

	raw, err := tablefile.ReadFile(opts.input)
	if err != nil {
		return "", record.Report{}, err
	}
	svc := app.New(app.WithLogger(logger.Get().Named("clean")))
	cleaned, report, err := svc.Clean(ctx, raw)
	if err != nil {
		return "", record.Report{}, fmt.Errorf("failed to clean %s: %w", opts.input, err)
	}

	prefix := opts.prefix
	if prefix == "" {
		prefix = tablefile.Prefix(opts.input)
	}
	if err := os.MkdirAll(opts.outDir, directoryPermission); err != nil {
		return "", record.Report{}, fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(opts.outDir, tablefile.OutputName(prefix, now, loc))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePermission)
	if err != nil {
		return "", record.Report{}, fmt.Errorf("failed to create output: %w", err)
	}
	if err := tablefile.WriteCSV(f, cleaned); err != nil {
		_ = f.Close()
		return "", record.Report{}, err
	}
	if err := f.Close(); err != nil {
		return "", record.Report{}, fmt.Errorf("failed to close output: %w", err)
	}

	if dropped := raw.DroppedRows(); dropped > 0 {
		logger.Get().Warn(ctx, "rows without numeric points dropped", logger.Int("dropped", dropped))
	}
	return path, report, nil
}

// applyLogLevel sets the configured level, warning and falling back to info
// when it is not a known level.
func applyLogLevel(ctx context.Context, level string) error {
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
		return err
	}
	return nil
}
