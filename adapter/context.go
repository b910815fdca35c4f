// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package adapter implements the RACE telemetry connection engine: UDP
// handshake, threaded and polling send/receive loops, and the per-remote
// connection state machine, on top of databuf, message and netutil.
package adapter

import (
	"sync/atomic"

	"github.com/NASARace/race-adapter-go/databuf"
	"github.com/NASARace/race-adapter-go/message"
)

// Client request flags describing which direction(s) of data a connection
// will carry.
const (
	DataSender   = int32(0x1)
	DataReceiver = int32(0x2)
)

// MaxTimeDiffMillis is the clock-skew tolerance beyond which Context adapts
// event timestamps to the remote's simulation clock.
const MaxTimeDiffMillis = 1000

// RecvTimeoutMillis bounds how long a client waits for a handshake
// response before retrying (if ConnectIntervalMillis > 0) or failing.
const RecvTimeoutMillis = 300

// NoIntervalPreference tells a server the client has no update-rate
// preference, so the server's own IntervalMillis applies.
const NoIntervalPreference = int32(-1)

// Callbacks is the capability set a host program supplies to customize
// handshake acceptance and application data exchange. Optional hooks are
// nil-checked before being invoked.
type Callbacks struct {
	// ConnectionStarted fires once a connection's send/receive loop is
	// about to begin.
	ConnectionStarted func()

	// WriteRequest composes the client's handshake Request payload
	// starting at pos and returns the position after the last byte
	// written.
	WriteRequest func(b *databuf.Buffer, pos int) int

	// CheckRequest runs on the server for every incoming Request. It
	// returns 0 (RejectAccepted) to accept, or a reject-reason bitset
	// to refuse. It may adjust *simMillis/*intervalMillis before they
	// are echoed back in the Accept response.
	CheckRequest func(host, service string, reqFlags int32, schema string, simMillis *int64, intervalMillis *int32) int32

	// WriteData composes one Data message's application payload
	// starting at pos and returns the position after the last byte
	// written, or a negative value to skip sending this tick.
	WriteData func(b *databuf.Buffer, pos int) int

	// ReadData decodes one Data message's application payload starting
	// at pos.
	ReadData func(b *databuf.Buffer, pos int)

	// ConnectionPaused/ConnectionResumed/ConnectionTerminated are
	// optional lifecycle notifications.
	ConnectionPaused     func()
	ConnectionResumed    func()
	ConnectionTerminated func()

	// Error/Warning/Info are the diagnostic reporters. There is no
	// default: a nil reporter is skipped and its messages are dropped.
	Error   func(format string, args ...any)
	Warning func(format string, args ...any)
	Info    func(format string, args ...any)
}

func (c Callbacks) info(format string, args ...any) {
	if c.Info != nil {
		c.Info(format, args...)
	}
}

func (c Callbacks) warning(format string, args ...any) {
	if c.Warning != nil {
		c.Warning(format, args...)
	}
}

func (c Callbacks) error(format string, args ...any) {
	if c.Error != nil {
		c.Error(format, args...)
	}
}

// Context carries the static configuration, callbacks and shared runtime
// state for one Server or Client run. It is the Go analogue of
// local_context_t, with mutable shared fields made explicit atomics since
// the threaded engine reads them from more than one goroutine.
type Context struct {
	// Host/Port: connect-to address (client). A server binds Port on all
	// interfaces and uses Host only in its log output.
	Host string
	Port string

	Schema         string
	Flags          int32
	IntervalMillis int32

	// ConnectIntervalMillis, when > 0, makes the client retry opening its
	// socket and resending its Request instead of failing on the first
	// unsuccessful attempt. 0 means fail immediately. The server's accept
	// loop does not use it: it always goes back to waiting for the next
	// Request.
	ConnectIntervalMillis int32

	Callbacks Callbacks

	// StopLocal is set by the host program (e.g. from a signal handler)
	// to request a graceful shutdown.
	StopLocal atomic.Bool

	// TimeDiffMillis is local-wallclock-minus-remote-sim-time, computed
	// once at handshake when the skew exceeds MaxTimeDiffMillis.
	TimeDiffMillis atomic.Int64

	// Stats accumulates traffic counters for the lifetime of the
	// Context. Read it from a StatsLogger tick or directly; every field
	// is safe for concurrent access from the sender and receiver sides
	// of a threaded connection.
	Stats Stats

	nextRemoteID atomic.Int32
}

// Stats holds the running traffic counters for a Context. All fields are
// atomic and safe to read concurrently with the send/receive loops.
type Stats struct {
	MsgsSent  atomic.Int64
	BytesSent atomic.Int64
	MsgsRecv  atomic.Int64
	BytesRecv atomic.Int64
	Dropped   atomic.Int64 // out-of-order Data messages discarded
	Rejected  atomic.Int64 // handshake requests this local end rejected
}

func (c *Context) newRemoteID() int32 {
	return c.nextRemoteID.Add(1)
}

// NewContext builds a Context with DefaultWriteRequest already wired into
// Callbacks.WriteRequest. Callers that need a custom handshake payload can
// overwrite Callbacks.WriteRequest afterwards.
func NewContext(host, port, schema string, flags, intervalMillis int32) *Context {
	ctx := &Context{Host: host, Port: port, Schema: schema, Flags: flags, IntervalMillis: intervalMillis}
	ctx.Callbacks.WriteRequest = ctx.DefaultWriteRequest
	return ctx
}

// DefaultWriteRequest composes a canonical Request message from the
// Context's own Schema/Flags/IntervalMillis. pos is ignored: a Request,
// like every message, always starts from a fresh header at position 0.
func (c *Context) DefaultWriteRequest(b *databuf.Buffer, pos int) int {
	return message.WriteRequest(b, nowMillis(), message.RequestMsg{
		Flags:          c.Flags,
		Schema:         c.Schema,
		SimTimeMillis:  nowMillis(),
		IntervalMillis: c.IntervalMillis,
	})
}

// DefaultCheckRequest accepts every request unconditionally, honoring the
// client's requested interval. It's a convenient starting point for
// CheckRequest in simple deployments; production servers typically reject
// on capacity or schema mismatch instead.
func DefaultCheckRequest(serverIntervalMillis int32) func(host, service string, reqFlags int32, schema string, simMillis *int64, intervalMillis *int32) int32 {
	return func(host, service string, reqFlags int32, schema string, simMillis *int64, intervalMillis *int32) int32 {
		if *intervalMillis == NoIntervalPreference {
			*intervalMillis = serverIntervalMillis
		}
		return message.RejectAccepted
	}
}

func (c *Context) setTimeDiff(simMillis int64, nowMillis func() int64) {
	diff := nowMillis() - simMillis
	abs := diff
	if abs < 0 {
		abs = -abs
	}
	if abs > MaxTimeDiffMillis {
		c.Callbacks.info("adapting simulation time by %d sec\n", diff/1000)
		c.TimeDiffMillis.Store(diff)
	}
}
