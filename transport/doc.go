// Package transport turns a possibly-disconnected infrared byte link into a
// reliable, serialized, cancellable request/response channel.
//
// # Overview
//
// A Session is bound to one device Endpoint. From creation until Close it runs a
// background maintenance loop that keeps the link connected: every
// MaintenanceInterval (100ms by default) it dials the endpoint if no stream is
// attached, and drops a stream whose liveness check fails. Connection errors are
// never fatal to the session, only to an exchange that was using the link.
//
// The only I/O primitive is Exchange: one request written, one response read.
// Exchanges are strictly one at a time (the pager is half-duplex):
//
//	sess := transport.NewSession(transport.NewSerialDialer(9600), ep)
//	defer sess.Close()
//
//	resp, err := sess.ExchangeAndCheck(ctx, frame, []byte{0xA0, 0x00, 0x03})
//
// # Exchange Semantics
//
// An exchange waits for the link, discards stale bytes, writes the request and
// polls for the first response byte every PollInterval. When ResponseTimeout
// passes without data the request is written again, up to ResendAttempts times,
// after which the exchange fails with a *TimeoutError. The response ends when the
// stream stays quiet for QuietPeriod; the protocol has no length field or
// terminator.
//
// # Errors
//
// Every failure has a kind, see Classify:
//   - ErrDisposed: the session was closed
//   - context errors: the caller cancelled
//   - *TimeoutError: no response despite resends
//   - *ValidationError: the response prefix did not match
//   - *LinkError: the stream failed mid-exchange; the session reconnects
//
// # Streams
//
// A Stream is any io.ReadWriteCloser with a read timeout. go.bug.st/serial ports
// satisfy it directly (SerialDialer); NewConnStream adapts a net.Conn for
// IrDA-to-TCP bridges (TCPDialer).
package transport
