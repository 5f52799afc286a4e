package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-pmeeprom/config"
	"github.com/moffa90/go-pmeeprom/simulator"
)

// Defaults of the command-line surface.
const (
	defaultStart = 0
	defaultEnd   = 1024
	defaultOp    = "r"
	defaultFile  = "eeprom_dump.hex"
)

// flags holds the root command flags.
type flags struct {
	cfgFile   string
	start     uint16
	end       uint16
	operation string
	file      string
	format    string
	port      string
	tcp       string
	trace     string
	verbose   bool
	simulate  bool
}

// app is one invocation of the CLI.
type app struct {
	flags flags

	// cfg is loaded in PersistentPreRunE, flags already applied
	cfg *config.Config

	// sim is the device used by --simulate; a fresh one when nil
	sim *simulator.Device
}

// Execute runs the CLI with the process arguments and returns the exit code.
// SIGINT and SIGTERM cancel a running batch.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	return a.execute(ctx, a.command(), os.Args[1:])
}

// RootCmd returns a new root command, for tests and documentation tools.
func RootCmd() *cobra.Command {
	return (&app{}).command()
}

func (a *app) execute(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	con := newConsole(root.OutOrStdout())
	con.Fail("%v", err)
	fmt.Fprintln(root.OutOrStdout(), "exiting...")
	return exitCode(err)
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "pmeeprom",
		Short: "Read, write and verify the EEPROM of Polimaster radiation pagers",
		Long: `pmeeprom reads, writes and verifies the EEPROM contents of Polimaster's
PM1703 and PM1401 series radiation pagers over an infrared (IrDA) link.

The address range is [start, end) and must hold whole 16-bit words. Reads
write the range to the dump file; writes and verifies take it from there,
offset 0 of the file being the start address.`,
		Example: `  pmeeprom -o r -s 0 -e 1024 -f eeprom_dump.hex
  pmeeprom -o v -f eeprom_dump.hex --port /dev/ircomm0
  pmeeprom -o w -f patched.txt --format hex --trace write.ptrace`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
		RunE:              a.run,
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return exitWith(exitParse, "unable to parse options: %w", err)
	})

	f := root.Flags()
	f.Uint16VarP(&a.flags.start, "start", "s", defaultStart, "first EEPROM address")
	f.Uint16VarP(&a.flags.end, "end", "e", defaultEnd, "EEPROM address after the last one; write and verify need an even range")
	f.StringVarP(&a.flags.operation, "operation", "o", defaultOp, "operation: r (read), w (write) or v (verify)")
	f.StringVarP(&a.flags.file, "file", "f", defaultFile, "dump file")
	f.StringVar(&a.flags.format, "format", "", "dump file format: bin or hex (default from config, \"bin\")")
	f.StringVar(&a.flags.port, "port", "", "serial device of the infrared link; skips discovery")
	f.StringVar(&a.flags.tcp, "tcp", "", "host:port of an IrDA-to-TCP bridge; skips discovery")
	f.BoolVar(&a.flags.simulate, "simulate", false, "run against a simulated pager")
	root.MarkFlagsMutuallyExclusive("port", "tcp", "simulate")

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.cfgFile, "config", "", "config file (default is ~/.pmeeprom/config.yaml)")
	pf.StringVar(&a.flags.trace, "trace", "", "append a CBOR protocol trace to this file")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log link activity to stderr")

	root.AddCommand(a.traceCommand())
	return root
}

// loadConfig loads the config file and applies the flags on top of it.
func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	path := a.flags.cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return exitWith(exitParse, "failed to load config: %w", err)
	}

	if a.flags.port != "" {
		cfg.Port = a.flags.port
	}
	if a.flags.format != "" {
		cfg.Format = a.flags.format
	}
	if a.flags.trace != "" {
		cfg.TraceFile = a.flags.trace
	}
	if a.flags.verbose {
		cfg.LogLevel = "debug"
	}

	a.cfg = cfg
	return nil
}

// logger returns the operational logger writing to w.
func (a *app) logger(w io.Writer) *slog.Logger {
	level, err := a.cfg.Level()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
