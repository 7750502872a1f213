package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/kjstillabower/tempprint/internal/config"
	"github.com/kjstillabower/tempprint/internal/console"
	httphandler "github.com/kjstillabower/tempprint/internal/http"
	"github.com/kjstillabower/tempprint/internal/lifecycle"
	"github.com/kjstillabower/tempprint/internal/observability"
	"github.com/kjstillabower/tempprint/internal/tempprint"
)

// options are the command-line settings layered over the loaded config.
type options struct {
	configPath  string
	displayTime time.Duration
	refreshRate string
	delay       time.Duration
	postDelay   time.Duration
	persistent  bool
	temporary   bool
	sep         *string // nil unless --sep was given
	end         *string
	maxWidth    int
	adminAddr   string
	args        []string
}

func newApp(o *options) *kingpin.Application {
	app := kingpin.New("tempprint", "Print lines that erase themselves after a delay.")
	app.Flag("config", "YAML config file (default: config/$ENV_NAME.yaml if present).").StringVar(&o.configPath)
	app.Flag("display-time", "How long each temporary line stays visible.").Short('t').DurationVar(&o.displayTime)
	app.Flag("refresh-rate", "Skip check interval: a duration, \"none\" or \"continuous\".").StringVar(&o.refreshRate)
	app.Flag("delay", "Wait before each line appears.").DurationVar(&o.delay)
	app.Flag("post-delay", "Wait after each line before erasing it.").DurationVar(&o.postDelay)
	app.Flag("persistent", "Print normal lines that are never erased.").Short('p').BoolVar(&o.persistent)
	app.Flag("temporary", "Erase lines even when stdout is not a terminal.").BoolVar(&o.temporary)
	var sep, end string
	app.Flag("sep", "Separator between arguments.").
		Action(func(*kingpin.ParseContext) error { o.sep = &sep; return nil }).
		StringVar(&sep)
	app.Flag("end", "Appended after the last argument.").
		Action(func(*kingpin.ParseContext) error { o.end = &end; return nil }).
		StringVar(&end)
	app.Flag("max-width", "Truncate temporary lines to this many cells (default: terminal width).").IntVar(&o.maxWidth)
	app.Flag("admin-addr", "Serve the control API on this address and keep running until interrupted.").StringVar(&o.adminAddr)
	app.Arg("text", "Values to print as one line. Reads lines from stdin when omitted.").StringsVar(&o.args)
	return app
}

func main() {
	var o options
	app := newApp(&o)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, err := observability.NewLogger(zap.WarnLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tty := console.IsTerminal(os.Stdout)
	width := 0
	if tty {
		// The last column would wrap on some terminals.
		width = console.Width(os.Stdout) - 1
	}
	if err := run(ctx, o, os.Stdin, os.Stdout, tty, width, logger); err != nil {
		logger.Error("tempprint", zap.Error(err))
		fmt.Fprintf(os.Stderr, "tempprint: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(o options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.displayTime > 0 {
		cfg.DisplayTime = o.displayTime
	}
	if o.refreshRate != "" {
		rr, ok := config.ParseRefreshRate(o.refreshRate, cfg.RefreshRate)
		if !ok {
			return nil, fmt.Errorf("invalid --refresh-rate %q", o.refreshRate)
		}
		cfg.RefreshRate = rr
	}
	if o.sep != nil {
		cfg.Sep = *o.sep
	}
	if o.end != nil {
		cfg.End = *o.end
	}
	if o.maxWidth > 0 {
		cfg.MaxWidth = o.maxWidth
	}
	if o.adminAddr != "" {
		cfg.AdminAddr = o.adminAddr
	}
	return cfg, nil
}

// run prints the arguments, or every stdin line, then waits for the queue to
// drain. Cancelling ctx clears the queue and erases the visible line.
func run(ctx context.Context, o options, in io.Reader, out io.Writer, tty bool, termWidth int, logger *zap.Logger) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	lifecycle.SetDraining(false)
	maxWidth := cfg.MaxWidth
	if maxWidth == 0 && termWidth > 0 {
		maxWidth = termWidth
	}

	printer, err := tempprint.New(tempprint.Config{
		DisplayTime: cfg.DisplayTime,
		RefreshRate: cfg.RefreshRate,
		Writer:      out,
		MaxWidth:    maxWidth,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("printer: %w", err)
	}

	// Carriage returns do nothing useful in a pipe or file.
	persistent := o.persistent || (!tty && !o.temporary)
	printOpts := []tempprint.Option{
		tempprint.WithSep(cfg.Sep),
		tempprint.WithEnd(cfg.End),
		tempprint.WithDelay(o.delay),
		tempprint.WithPostDelay(o.postDelay),
	}
	if persistent {
		printOpts = append(printOpts, tempprint.Persistent())
	}

	var srv *http.Server
	if cfg.AdminAddr != "" {
		srv = startAdmin(cfg, printer, logger)
	}

	f := &feeder{ctx: ctx, printer: printer, opts: printOpts}
	fed := make(chan error, 1)
	go func() {
		fed <- f.feed(o.args, in)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("interrupted; clearing queue")
	case err := <-fed:
		if err != nil {
			runErr = err
			break
		}
		if srv != nil {
			// Keep serving remote prints until interrupted.
			<-ctx.Done()
			break
		}
		if err := printer.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	}

	// A read from a terminal can block until the next keypress, so the reader
	// is cut off from the printer rather than waited for.
	f.stop()
	lifecycle.SetDraining(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("admin server shutdown", zap.Error(err))
		}
		if err := httphandler.WaitForInFlight(shutdownCtx); err != nil {
			logger.Warn("control requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
		}
	}
	if err := printer.Close(shutdownCtx); err != nil {
		logger.Warn("printer did not stop in time", zap.Error(err))
	}
	if err := observability.FlushLogs(logger); err != nil {
		fmt.Fprintf(os.Stderr, "flush logs: %v\n", err)
	}
	return runErr
}

var errFeedStopped = errors.New("input stopped")

// feeder queues input on the printer until ctx is done or stop is called.
// mu is held across each check-and-print so stop waits out a print in progress.
type feeder struct {
	ctx     context.Context
	printer *tempprint.Printer
	opts    []tempprint.Option

	mu      sync.Mutex
	stopped bool
}

func (f *feeder) print(values []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped || f.ctx.Err() != nil {
		return errFeedStopped
	}
	_, err := f.printer.Print(values, f.opts...)
	return err
}

// stop returns once no print is in flight; nothing is queued afterwards.
func (f *feeder) stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

// feed queues args as a single line, or each line of in when there are no args.
// It returns at the first line read after stop, without printing it.
func (f *feeder) feed(args []string, in io.Reader) error {
	if len(args) > 0 {
		values := make([]any, len(args))
		for i, a := range args {
			values[i] = a
		}
		if err := f.print(values); err != nil && !errors.Is(err, errFeedStopped) {
			return err
		}
		return nil
	}
	if in == nil {
		return nil
	}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		err := f.print([]any{line})
		if errors.Is(err, errFeedStopped) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("print %q: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func startAdmin(cfg *config.Config, printer *tempprint.Printer, logger *zap.Logger) *http.Server {
	var limiter *rate.Limiter
	if cfg.AdminRateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.AdminRateLimitRPS), cfg.AdminRateLimitBurst)
	}
	handler := httphandler.NewHandler(printer, logger)
	srv := &http.Server{
		Addr:         cfg.AdminAddr,
		Handler:      httphandler.NewRouter(handler, logger, limiter),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("control API starting", zap.String("addr", cfg.AdminAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("control API", zap.Error(err))
		}
	}()
	return srv
}
