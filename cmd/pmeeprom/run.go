package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-pmeeprom/discovery"
	"github.com/moffa90/go-pmeeprom/dump"
	"github.com/moffa90/go-pmeeprom/eeprom"
	"github.com/moffa90/go-pmeeprom/protocol"
	"github.com/moffa90/go-pmeeprom/simulator"
	"github.com/moffa90/go-pmeeprom/tracelog"
	"github.com/moffa90/go-pmeeprom/transport"
)

// simulateLatency is the response delay of the --simulate device.
const simulateLatency = 5 * time.Millisecond

// run validates the arguments, finds the pager and runs the batch.
func (a *app) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	con := newConsole(cmd.OutOrStdout())
	logger := a.logger(cmd.ErrOrStderr())

	op, err := eeprom.ParseOperation(a.flags.operation)
	if err != nil {
		return exitWith(exitOperation, "unknown operation type: %s", a.flags.operation)
	}

	r := eeprom.Range{Start: a.flags.start, End: a.flags.end}
	if err := r.ValidateFor(op); err != nil {
		return exitWith(exitRange, "%w", err)
	}

	format, err := dump.ParseFormat(a.cfg.Format)
	if err != nil {
		return exitWith(exitParse, "%w", err)
	}

	// Writes and verifies load the file before touching the link.
	var data []byte
	if op != eeprom.OpRead {
		data, err = dump.NewFileSource(a.flags.file, format).ReadExactly(r.Len())
		if err != nil {
			return exitWith(exitFile, "unable to read file: %w", err)
		}
	}

	tracer, closeTracer, err := a.tracer(logger, con)
	if err != nil {
		return exitWith(exitFile, "unable to open trace file: %w", err)
	}
	defer closeTracer()

	dialer, ep, err := a.connect(ctx, con)
	if err != nil {
		if transport.IsCancelled(err) {
			con.Done("scan cancelled")
			return nil
		}
		return err
	}

	opts := append(a.cfg.SessionOptions(),
		transport.WithLogger(logger),
		transport.WithTracer(tracer),
	)
	session := transport.NewSession(dialer, *ep, opts...)
	defer func() {
		if err := session.Close(); err != nil {
			logger.Debug("session close", "error", err)
		}
	}()

	prog := eeprom.New(protocol.NewDevice(session),
		eeprom.WithLogger(logger),
		eeprom.WithProgressCallback(con.Progress(r.End)),
		eeprom.WithMismatchCallback(func(m eeprom.Mismatch) {
			con.Fail("verification error: address %d, expected %d, got %d", m.Address, m.Expected, m.Actual)
		}),
	)

	switch op {
	case eeprom.OpRead:
		err = a.read(ctx, prog, r, format, con)
	case eeprom.OpWrite:
		err = prog.Write(ctx, r, eeprom.BytesSource(data))
	case eeprom.OpVerify:
		var report *eeprom.VerifyReport
		report, err = prog.Verify(ctx, r, eeprom.BytesSource(data))
		if report != nil && (err == nil || transport.IsCancelled(err)) {
			con.Done("verified: %d errors", report.Count())
		}
	}

	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return err
		}
		if transport.IsCancelled(err) {
			con.Done("operation cancelled: %v", err)
			return nil
		}
		return exitWith(exitBatch, "%w (%s)", err, transport.Classify(err))
	}

	con.Done("operation done")
	return nil
}

// read dumps r to the file. The file is truncated once the pager is found.
func (a *app) read(ctx context.Context, prog *eeprom.Programmer, r eeprom.Range, format dump.Format, con *console) error {
	sink, err := dump.CreateSink(a.flags.file, format, r.Start)
	if err != nil {
		return exitWith(exitFile, "unable to create file: %w", err)
	}

	err = prog.Read(ctx, r, sink)
	if cerr := sink.Close(); cerr != nil && err == nil {
		return exitWith(exitFile, "unable to write file: %w", cerr)
	}
	if err == nil || transport.IsCancelled(err) {
		con.Done("output to file %s", a.flags.file)
	}
	return err
}

// connect picks the dialer and endpoint: the simulator, a TCP bridge, a
// configured serial port, or the first serial port discovery finds.
func (a *app) connect(ctx context.Context, con *console) (transport.Dialer, *transport.Endpoint, error) {
	switch {
	case a.flags.simulate:
		dev := a.sim
		if dev == nil {
			dev = simulator.New(simulator.WithLatency(simulateLatency))
		}
		return dev, &transport.Endpoint{Address: "simulator", Name: "simulated pager"}, nil

	case a.flags.tcp != "":
		return &transport.TCPDialer{}, &transport.Endpoint{Address: a.flags.tcp}, nil

	case a.cfg.Port != "":
		return transport.NewSerialDialer(a.cfg.BaudRate), &transport.Endpoint{Address: a.cfg.Port}, nil
	}

	con.Done("begin continuous scan for IrDA devices...")
	scanner := discovery.NewScanner(a.cfg.DiscoveryPatterns...)
	ep, err := discovery.WaitForDevice(ctx, scanner, a.cfg.DiscoveryInterval)
	if err != nil {
		return nil, nil, err
	}
	con.Done("device found!")
	return transport.NewSerialDialer(a.cfg.BaudRate), ep, nil
}

// tracer builds the protocol tracer: the trace file when configured, plus
// the debug log when verbose. closeFn reports what the file recorded.
func (a *app) tracer(logger *slog.Logger, con *console) (tracelog.Logger, func(), error) {
	var file *tracelog.FileLogger
	closeFn := func() {}

	if a.cfg.TraceFile != "" {
		var err error
		if file, err = tracelog.NewFileLogger(a.cfg.TraceFile); err != nil {
			return nil, nil, err
		}
		closeFn = func() {
			if err := file.Close(); err != nil {
				logger.Error("close trace file", "error", err)
				return
			}
			con.Done("trace written to %s: %s", a.cfg.TraceFile, file.Summary())
		}
	}

	var debug tracelog.Logger
	if a.flags.verbose {
		debug = tracelog.NewSlogAdapter(logger)
	}

	// A nil *FileLogger must not reach Tee as a non-nil interface.
	if file == nil {
		return tracelog.Tee(debug), closeFn, nil
	}
	return tracelog.Tee(file, debug), closeFn, nil
}
