package eeprom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-pmeeprom/protocol"
)

// WordDevice accesses the EEPROM one word at a time.
// *protocol.Device implements it.
type WordDevice interface {
	ReadWordAt(ctx context.Context, addr uint16) (protocol.Word, error)
	WriteWordAt(ctx context.Context, addr uint16, w protocol.Word) error
}

// Sink receives the bytes of a Read in address order.
type Sink interface {
	Append(p []byte) error
	Flush() error
}

// Source supplies the bytes for Write and Verify. ReadExactly returns exactly
// n bytes or an error.
type Source interface {
	ReadExactly(n int) ([]byte, error)
}

// BytesSource is a Source over an in-memory buffer, typically a file loaded
// before the device was opened.
type BytesSource []byte

// ReadExactly returns the first n bytes of the buffer.
func (b BytesSource) ReadExactly(n int) ([]byte, error) {
	if len(b) < n {
		return nil, &SourceError{Want: n, Got: len(b)}
	}
	return b[:n], nil
}

// Programmer drives address ranges through a WordDevice.
//
// A Programmer runs one batch at a time; start the next batch after the
// previous one returned.
type Programmer struct {
	device WordDevice
	config Config
}

// New creates a new Programmer with the given device and options.
//
// Example:
//
//	prog := eeprom.New(protocol.NewDevice(sess),
//	    eeprom.WithProgressCallback(progressFunc),
//	    eeprom.WithLogger(slog.Default()),
//	)
func New(device WordDevice, opts ...Option) *Programmer {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		device: device,
		config: cfg,
	}
}

// Read reads every word of r and appends it to sink, flushing after each
// word so an interrupted read keeps everything read so far. For an odd range
// the last word is read whole, one byte past End.
func (p *Programmer) Read(ctx context.Context, r Range, sink Sink) error {
	if err := r.ValidateFor(OpRead); err != nil {
		return err
	}

	b := p.begin(OpRead, r)
	for i := 0; i < r.Words(); i++ {
		addr := r.Address(i)
		if err := ctx.Err(); err != nil {
			return b.fail(addr, i, err)
		}

		w, err := p.device.ReadWordAt(ctx, addr)
		if err != nil {
			return b.fail(addr, i, err)
		}
		if err := sink.Append(w[:]); err != nil {
			return b.fail(addr, i, fmt.Errorf("append to sink: %w", err))
		}
		if err := sink.Flush(); err != nil {
			return b.fail(addr, i, fmt.Errorf("flush sink: %w", err))
		}

		b.advance(addr, i+1)
	}

	b.done()
	return nil
}

// Write writes the first r.Len() bytes of src to r. The source is read in
// full before the first exchange; a short source fails without touching the
// device.
func (p *Programmer) Write(ctx context.Context, r Range, src Source) error {
	if err := r.ValidateFor(OpWrite); err != nil {
		return err
	}
	data, err := readSource(src, r.Len())
	if err != nil {
		return err
	}

	b := p.begin(OpWrite, r)
	for i := 0; i < r.Words(); i++ {
		addr := r.Address(i)
		if err := ctx.Err(); err != nil {
			return b.fail(addr, i, err)
		}

		off := i * protocol.WordSize
		w := protocol.Word{data[off], data[off+1]}
		if err := p.device.WriteWordAt(ctx, addr, w); err != nil {
			return b.fail(addr, i, err)
		}

		b.advance(addr, i+1)
	}

	b.done()
	return nil
}

// Verify reads r back and compares it with the first r.Len() bytes of src.
// Mismatches do not stop the run. The returned report is non-nil whenever the
// source could be read, also when the batch stopped early.
func (p *Programmer) Verify(ctx context.Context, r Range, src Source) (*VerifyReport, error) {
	if err := r.ValidateFor(OpVerify); err != nil {
		return nil, err
	}
	data, err := readSource(src, r.Len())
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{Range: r}

	b := p.begin(OpVerify, r)
	for i := 0; i < r.Words(); i++ {
		addr := r.Address(i)
		if err := ctx.Err(); err != nil {
			return report, b.fail(addr, i, err)
		}

		w, err := p.device.ReadWordAt(ctx, addr)
		if err != nil {
			return report, b.fail(addr, i, err)
		}

		off := i * protocol.WordSize
		for j := 0; j < protocol.WordSize; j++ {
			if w[j] == data[off+j] {
				continue
			}
			m := Mismatch{Address: addr + uint16(j), Expected: data[off+j], Actual: w[j]}
			report.Mismatches = append(report.Mismatches, m)
			p.logDebug("verify mismatch", "address", fmt.Sprintf("0x%04X", m.Address),
				"expected", m.Expected, "actual", m.Actual)
			if p.config.MismatchCallback != nil {
				p.config.MismatchCallback(m)
			}
		}
		report.WordsChecked = i + 1

		b.advance(addr, i+1)
	}

	b.done("mismatches", report.Count())
	return report, nil
}

func readSource(src Source, n int) ([]byte, error) {
	data, err := src.ReadExactly(n)
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &SourceError{Want: n, Err: err}
	}
	if len(data) < n {
		return nil, &SourceError{Want: n, Got: len(data)}
	}
	return data, nil
}

// batch tracks progress reporting and logging for one run.
type batch struct {
	p     *Programmer
	op    Operation
	r     Range
	start time.Time
}

func (p *Programmer) begin(op Operation, r Range) *batch {
	p.logInfo("batch started", "operation", op.String(), "range", r.String(), "words", r.Words())
	return &batch{p: p, op: op, r: r, start: time.Now()}
}

func (b *batch) advance(addr uint16, done int) {
	if b.p.config.ProgressCallback == nil {
		return
	}
	total := b.r.Words()
	b.p.config.ProgressCallback(Progress{
		Operation:        b.op,
		Address:          addr,
		WordsDone:        done,
		TotalWords:       total,
		Percentage:       float64(done) / float64(total) * 100,
		BytesTransferred: done * protocol.WordSize,
		ElapsedTime:      time.Since(b.start),
	})
}

func (b *batch) fail(addr uint16, completed int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		b.p.logInfo("batch cancelled", "operation", b.op.String(),
			"address", fmt.Sprintf("0x%04X", addr), "completed", completed)
	} else {
		b.p.logError("batch failed", "operation", b.op.String(),
			"address", fmt.Sprintf("0x%04X", addr), "completed", completed, "error", err)
	}
	return &BatchError{Operation: b.op, Address: addr, Completed: completed, Err: err}
}

func (b *batch) done(keysAndValues ...any) {
	kv := append([]any{"operation", b.op.String(), "words", b.r.Words(),
		"elapsed", time.Since(b.start).Round(time.Millisecond)}, keysAndValues...)
	b.p.logInfo("batch complete", kv...)
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...any) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...any) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...any) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
