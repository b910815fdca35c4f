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

package adapter

import (
	"net"
	"sync"
	"time"

	"github.com/NASARace/race-adapter-go/databuf"
	"github.com/NASARace/race-adapter-go/message"
	"github.com/NASARace/race-adapter-go/netutil"
)

// MaxPolledMsgs bounds how many datagrams the polling variant drains from
// the socket per tick, so a burst of incoming data can never starve the
// outgoing send schedule.
const MaxPolledMsgs = 42

func sendData(ctx *Context, local *localEndpoint, remote *remoteEndpoint) bool {
	local.buf.Reset()
	pos := message.BeginWriteData(local.buf, nowMillis(), local.id)
	if ctx.Callbacks.WriteData != nil {
		pos = ctx.Callbacks.WriteData(local.buf, pos)
	}
	if pos < 0 {
		ctx.Callbacks.warning("no data payload written\n")
		return true
	}
	pos = message.EndWriteData(local.buf, pos)
	if pos <= 0 {
		return true
	}
	n, err := local.conn.WriteToUDP(local.buf.Bytes()[:pos], remote.addr)
	if err != nil {
		ctx.Callbacks.error("sending data failed (%v)\n", err)
		return false
	}
	ctx.Stats.MsgsSent.Add(1)
	ctx.Stats.BytesSent.Add(int64(n))
	return true
}

func sendStop(ctx *Context, local *localEndpoint, remote *remoteEndpoint) {
	local.buf.Reset()
	n := message.WriteStop(local.buf, nowMillis(), local.id)
	local.buf.Seek(n)
	if !sendAssembledMessage(ctx, local, remote) {
		ctx.Callbacks.error("sending local stop failed\n")
	}
}

// receiveMessage blocks for a single datagram from remote and dispatches
// it: Stop/Pause/Resume update remote's state machine, Data is decoded via
// Callbacks.ReadData after the out-of-order check, anything else is
// logged and discarded. It uses its own buffer so it never races with the
// sender goroutine's local.buf.
func receiveMessage(ctx *Context, conn *net.UDPConn, remote *remoteEndpoint) {
	buf := databuf.NewSize(message.MaxMsgLen)

	n, _, err := netutil.ReadFromUDP(conn, buf.Bytes())
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return
		}
		if !ctx.StopLocal.Load() {
			ctx.Callbacks.error("polling remote failed (%v)\n", err)
		}
		return
	}
	buf.Seek(n)

	switch {
	case message.IsStop(buf):
		hdr, err := message.ReadStop(buf)
		if err == nil && hdr.SenderID == remote.id {
			remote.setState(StateStopped)
		}

	case message.IsData(buf):
		if ctx.Flags&DataReceiver == 0 {
			ctx.Callbacks.warning("local is ignoring data messages\n")
			return
		}
		hdr, pos, err := message.ReadDataHeader(buf)
		if err != nil {
			ctx.Callbacks.error("received malformed message from remote %x (%v)\n", hdr.SenderID, err)
			return
		}
		if hdr.SenderID != remote.id {
			ctx.Callbacks.warning("ignoring message from unknown remote %x (expected %x)\n", hdr.SenderID, remote.id)
			return
		}
		if hdr.SendTimeMillis < remote.timeLast {
			ctx.Callbacks.warning("ignoring out-of-order message from remote %x (%d < %d)\n", hdr.SenderID, hdr.SendTimeMillis, remote.timeLast)
			ctx.Stats.Dropped.Add(1)
			return
		}
		remote.timeLast = hdr.SendTimeMillis
		ctx.Stats.MsgsRecv.Add(1)
		ctx.Stats.BytesRecv.Add(int64(n))
		if ctx.Callbacks.ReadData != nil {
			ctx.Callbacks.ReadData(buf, pos)
		}

	case message.IsPause(buf):
		hdr, err := message.ReadPause(buf)
		if err == nil && hdr.SenderID == remote.id {
			remote.setState(StatePaused)
			if ctx.Callbacks.ConnectionPaused != nil {
				ctx.Callbacks.ConnectionPaused()
			}
		}

	case message.IsResume(buf):
		hdr, err := message.ReadResume(buf)
		if err == nil && hdr.SenderID == remote.id {
			remote.setState(StateActive)
			if ctx.Callbacks.ConnectionResumed != nil {
				ctx.Callbacks.ConnectionResumed()
			}
		}

	default:
		ctx.Callbacks.warning("received unknown message\n")
	}
}

// runConnectionThreaded spawns a dedicated receiver goroutine and drives
// the send loop on the calling goroutine, joining the receiver before
// returning. This is the default, always-responsive variant.
func runConnectionThreaded(ctx *Context, local *localEndpoint, remote *remoteEndpoint) bool {
	remote.setState(StateActive)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.Callbacks.info("receiver goroutine started\n")
		for !remote.isStopped() && !ctx.StopLocal.Load() {
			// Refreshed every iteration: this short deadline is what lets
			// the loop notice remote.isStopped()/ctx.StopLocal without a
			// thread-cancellation primitive, while still blocking (rather
			// than busy-spinning) for most of each tick.
			netutil.SetReadTimeout(local.conn, 250*time.Millisecond)
			receiveMessage(ctx, local.conn, remote)
		}
		ctx.Callbacks.info("receiver goroutine terminated\n")
	}()

	if ctx.Callbacks.ConnectionStarted != nil {
		ctx.Callbacks.ConnectionStarted()
	}

	ok := true
	for !remote.isStopped() && !ctx.StopLocal.Load() {
		if !sendData(ctx, local, remote) {
			ok = false
			break
		}
		time.Sleep(time.Duration(local.intervalMillis) * time.Millisecond)
	}

	if ok && ctx.StopLocal.Load() && !remote.isStopped() {
		sendData(ctx, local, remote)
		sendStop(ctx, local, remote)
	}

	wg.Wait() // cancellation: the receiver's own deadline unblocks it; join always follows

	if ctx.Callbacks.ConnectionTerminated != nil {
		ctx.Callbacks.ConnectionTerminated()
	}
	return ok
}
