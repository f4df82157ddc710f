// Command colstats computes column statistics over a parquet file or arrow
// IPC data and prints them as a JSON report.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/influxdata/colstats/frame"
	"github.com/influxdata/colstats/kit/cli"
	"github.com/influxdata/colstats/kit/errors"
	"github.com/influxdata/colstats/kit/prom"
	"github.com/influxdata/colstats/logger"
	"github.com/influxdata/colstats/stats"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd, err := newCommand(ctx, viper.New(), os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

// describe formats err for the terminal, prefixing coded failures with
// their class.
func describe(err error) string {
	if code := errors.ErrorCode(err); code != errors.EInternal {
		return code + ": " + err.Error()
	}
	return err.Error()
}

type command struct {
	input        string
	job          string
	logFormat    string
	logLevel     zapcore.Level
	concurrency  int
	approximate  bool
	compression  float64
	printMetrics bool

	stdout io.Writer
	stderr io.Writer
}

func newCommand(ctx context.Context, v *viper.Viper, stdout, stderr io.Writer) (*cobra.Command, error) {
	c := &command{stdout: stdout, stderr: stderr}
	cmd, err := cli.NewCommand(v, &cli.Program{
		Name: "colstats",
		Run:  func() error { return c.run(ctx) },
		Opts: []cli.Opt{
			{DestP: &c.input, Flag: "input", Short: 'i', Required: true,
				Desc: "parquet file (.parquet), arrow IPC file (.arrow) or stream (.arrows) to profile"},
			{DestP: &c.job, Flag: "job", Short: 'j', Required: true,
				Desc: "TOML file listing the statistics to compute"},
			{DestP: &c.logFormat, Flag: "log-format", Default: "auto",
				Desc: "log output format: auto, console, logfmt or json"},
			{DestP: &c.logLevel, Flag: "log-level", Default: zapcore.InfoLevel,
				Desc: "minimum log level: debug, info, warn or error"},
			{DestP: &c.concurrency, Flag: "concurrency",
				Desc: "partitions and requests processed at once; 0 uses GOMAXPROCS"},
			{DestP: &c.approximate, Flag: "approx-quantiles",
				Desc: "estimate quantiles with a t-digest instead of sorting"},
			{DestP: &c.compression, Flag: "compression", Default: frame.DefaultCompression,
				Desc: "t-digest compression used with --approx-quantiles"},
			{DestP: &c.printMetrics, Flag: "print-metrics",
				Desc: "write operator metrics to stderr after the report"},
		},
	})
	if err != nil {
		return nil, err
	}
	cmd.Short = "Compute column statistics over a partitioned table"
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd, nil
}

func (c *command) run(ctx context.Context) error {
	conf := logger.Config{Format: c.logFormat, Level: c.logLevel}
	log, err := conf.New(c.stderr)
	if err != nil {
		return err
	}
	defer log.Sync()

	reqs, err := loadJob(c.job)
	if err != nil {
		return err
	}

	opts := []frame.Option{frame.WithLogger(log), frame.WithConcurrency(c.concurrency)}
	if c.approximate {
		opts = append(opts, frame.WithApproxQuantiles(c.compression))
	}
	tbl, err := openTable(c.input, opts...)
	if err != nil {
		return err
	}
	defer tbl.Close()

	log.Info("Loaded table",
		zap.String("path", c.input),
		zap.Int("columns", len(tbl.Schema())),
		zap.Int("partitions", len(tbl.Partitions())),
		zap.String("rows", humanize.Comma(int64(tbl.NumRows()))),
	)

	reg := prom.NewRegistry(log)
	metrics := stats.NewMetrics(nil)
	reg.MustRegister(metrics)

	runner := &stats.Runner{Logger: log, Metrics: metrics, Concurrency: c.concurrency}
	res, err := runner.Run(ctx, tbl, reqs)
	if err != nil {
		log.Error("Statistics run failed", zap.Error(err))
		return err
	}
	if err := writeReport(c.stdout, res); err != nil {
		return err
	}

	if c.printMetrics {
		return reg.WriteText(c.stderr)
	}
	return nil
}
