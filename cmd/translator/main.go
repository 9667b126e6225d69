package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"dialect-bridge/internal/app"
	"dialect-bridge/internal/config"
	"dialect-bridge/internal/console"
	"dialect-bridge/internal/logging"
	"dialect-bridge/internal/model"
	"dialect-bridge/internal/report"
	"dialect-bridge/internal/service"
	"dialect-bridge/internal/utils"
	"dialect-bridge/internal/verifier"
)

const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// Options are the command line options of the batch translator.
type Options struct {
	Config   string `short:"c" long:"config" description:"configuration file (default ./configs/config.yaml)"`
	Profile  string `short:"p" long:"profile" description:"Databricks CLI profile"`
	Dialect  string `short:"d" long:"dialect" choice:"auto" choice:"hive" choice:"trino" description:"source dialect, auto detects by file extension"`
	Out      string `short:"o" long:"out" description:"output directory for translated files and reports"`
	Execute  bool   `short:"x" long:"execute" description:"execute translated statements after validation"`
	NoColor  bool   `long:"no-color" description:"disable colored console output"`
	LogLevel string `long:"log-level" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"override logging.level"`
	Args     struct {
		Files []string `positional-arg-name:"FILE" description:"HiveQL or Trino files (default: *.hql and *.sql under input.dir)"`
	} `positional-args:"yes"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "translator"
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	f := console.New(!opts.NoColor && os.Getenv("NO_COLOR") == "")

	cfg, err := config.Load(config.Options{ConfigFile: opts.Config, Profile: opts.Profile})
	if err != nil {
		fmt.Fprintln(stderr, f.Fail("Error: "+err.Error()))
		return exitError
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(stderr, f.Fail("Error: "+err.Error()))
		return exitError
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, app.Options{OutputDir: opts.Out, Dialect: opts.Dialect}, logger)
	if err != nil {
		fmt.Fprintln(stderr, f.Fail("Error: "+err.Error()))
		return exitError
	}
	defer components.Close()

	paths := opts.Args.Files
	if len(paths) == 0 {
		if paths, err = service.DiscoverInputs(cfg.Input.Dir); err != nil {
			fmt.Fprintln(stderr, f.Fail("Error: "+err.Error()))
			return exitError
		}
	}

	fmt.Fprintf(stdout, "%s\n", f.Emphasize(fmt.Sprintf("Translating %d file(s) to Databricks SQL (run %s)", len(paths), components.RunID)))
	pipeline := components.Pipeline.WithProgress(console.NewProgress(stdout, f))

	runReport, runErr := pipeline.Run(ctx, paths)

	dispositions := runReport.Dispositions()
	fmt.Fprintln(stdout)
	report.RenderConsole(stdout, report.Summarize(dispositions), report.Failures(dispositions), f)
	fmt.Fprintf(stdout, "\nResults written to %s\n", components.Sink.Location())

	if runErr != nil {
		return reportRunError(stderr, f, runErr, logger)
	}

	if opts.Execute {
		if err := verify(ctx, stdout, f, cfg, components, runReport, logger); err != nil {
			return reportRunError(stderr, f, err, logger)
		}
	}
	return exitOK
}

func reportRunError(stderr io.Writer, f console.Formatter, err error, logger *zap.Logger) int {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, f.Warn("Interrupted, partial results were written"))
		return exitInterrupted
	}
	switch {
	case utils.IsErrorType(err, utils.ErrCodeConfigError):
		fmt.Fprintln(stderr, f.Fail("Configuration error: "+err.Error()))
	case utils.IsErrorType(err, utils.ErrCodeConnectionFailed):
		fmt.Fprintln(stderr, f.Fail("Connection error: "+err.Error()))
	default:
		fmt.Fprintln(stderr, f.Fail("Error: "+err.Error()))
	}
	logger.Debug("run failed", zap.Error(err))
	return exitError
}

// verify executes every translated statement on the warehouse.
func verify(ctx context.Context, stdout io.Writer, f console.Formatter, cfg *config.Config, c *app.Components, run model.RunReport, logger *zap.Logger) error {
	session, err := c.Sessions.Open(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	v := verifier.NewVerifier(session, c.Guard, cfg.Verify.Cleanup, logger)
	if len(cfg.Verify.Fixtures) > 0 {
		if err := v.Prepare(ctx, verifier.NewScriptLoader(cfg.Verify.Fixtures...)); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "\n%s\n", f.Emphasize("Executing translated statements"))
	var passed, total int
	for _, file := range run.Files {
		for _, r := range v.VerifyFile(ctx, file) {
			total++
			switch {
			case r.Success:
				passed++
				fmt.Fprintf(stdout, "  %s %s - %s\n", f.OK("ok"), file.Path, r.Unit)
			case r.Skipped:
				fmt.Fprintf(stdout, "  %s %s - %s\n", f.Warn("skipped"), file.Path, r.Unit)
			default:
				fmt.Fprintf(stdout, "  %s %s - %s: %s\n", f.Fail("failed"), file.Path, r.Unit, r.Error)
			}
		}
	}
	fmt.Fprintf(stdout, "Executed %d/%d statements successfully\n", passed, total)
	return ctx.Err()
}
