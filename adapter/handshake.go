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
	"time"

	"github.com/NASARace/race-adapter-go/message"
	"github.com/NASARace/race-adapter-go/netutil"
)

func nowMillis() int64 { return time.Now().UnixMilli() }

// waitForRequest blocks until a Request datagram arrives on local, then
// asks ctx.Callbacks.CheckRequest whether to accept or reject it. A nil
// remote return means no connection was established (rejected, malformed
// request, or the socket was closed during shutdown).
func waitForRequest(ctx *Context, local *localEndpoint) *remoteEndpoint {
	if err := netutil.SetReadTimeout(local.conn, 0); err != nil {
		ctx.Callbacks.error("cannot put socket into blocking mode (%v)\n", err)
		return nil
	}

	ctx.Callbacks.info("waiting for request on %s:%s\n", ctx.Host, ctx.Port)
	local.buf.Reset()
	n, srcAddr, err := local.conn.ReadFromUDP(local.buf.Bytes())
	if err != nil {
		if !ctx.StopLocal.Load() {
			ctx.Callbacks.error("reading remote request failed (%v)\n", err)
		}
		return nil
	}
	local.buf.Seek(n)

	if !message.IsRequest(local.buf) {
		ctx.Callbacks.error("received non-request message while waiting for handshake\n")
		return nil
	}
	hdr, req, err := message.ReadRequest(local.buf)
	if err != nil {
		ctx.Callbacks.error("error reading remote request (%v)\n", err)
		return nil
	}

	simMillis := req.SimTimeMillis
	intervalMillis := req.IntervalMillis
	var reject int32
	if ctx.Callbacks.CheckRequest != nil {
		reject = ctx.Callbacks.CheckRequest(srcAddr.IP.String(), portOf(srcAddr), req.Flags, req.Schema, &simMillis, &intervalMillis)
	}
	if reject != message.RejectAccepted {
		ctx.Stats.Rejected.Add(1)
		ctx.Callbacks.info("remote rejected for reason %x\n", reject)
		local.buf.Reset()
		n := message.WriteReject(local.buf, nowMillis(), reject)
		if _, err := local.conn.WriteToUDP(local.buf.Bytes()[:n], srcAddr); err != nil {
			ctx.Callbacks.error("sending local response failed (%v)\n", err)
		}
		return nil
	}

	local.intervalMillis = intervalMillis
	ctx.setTimeDiff(simMillis, nowMillis)

	remoteID := ctx.newRemoteID()
	local.buf.Reset()
	n = message.WriteAccept(local.buf, nowMillis(), message.AcceptMsg{
		Flags:          ctx.Flags,
		SimTimeMillis:  simMillis,
		IntervalMillis: local.intervalMillis,
		ClientID:       remoteID,
	})
	if _, err := local.conn.WriteToUDP(local.buf.Bytes()[:n], srcAddr); err != nil {
		ctx.Callbacks.error("sending local accept failed (%v)\n", err)
		return nil
	}

	return newRemoteEndpoint(srcAddr, remoteID, hdr.SendTimeMillis)
}

func portOf(addr *net.UDPAddr) string {
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ""
	}
	return port
}

// sendAssembledMessage writes whatever is currently in local.buf (up to its
// cursor position) to remote.
func sendAssembledMessage(ctx *Context, local *localEndpoint, remote *remoteEndpoint) bool {
	if _, err := local.conn.WriteToUDP(local.buf.Bytes()[:local.buf.Pos()], remote.addr); err != nil {
		ctx.Callbacks.error("sending message failed (%v)\n", err)
		return false
	}
	return true
}

// sendRequest delegates the entire Request datagram to
// ctx.Callbacks.WriteRequest, the client-side counterpart of CheckRequest.
// Most callers never set it explicitly: NewContext wires it to
// DefaultWriteRequest, which composes the canonical Request from Context's
// own Schema/Flags/IntervalMillis fields.
func sendRequest(ctx *Context, local *localEndpoint, remote *remoteEndpoint) bool {
	local.buf.Reset()
	n := ctx.Callbacks.WriteRequest(local.buf, 0)
	local.buf.Seek(n)
	return sendAssembledMessage(ctx, local, remote)
}

// waitForResponse blocks (bounded by the read deadline established by the
// caller) for the server's Accept/Reject and applies it to local/remote.
func waitForResponse(ctx *Context, local *localEndpoint, remote *remoteEndpoint) bool {
	local.buf.Reset()
	n, _, err := local.conn.ReadFromUDP(local.buf.Bytes())
	if err != nil {
		if ctx.ConnectIntervalMillis == 0 {
			ctx.Callbacks.error("failed to receive server response: %v\n", err)
		}
		return false
	}
	local.buf.Seek(n)

	if message.IsAccept(local.buf) {
		_, m, err := message.ReadAccept(local.buf)
		if err != nil {
			ctx.Callbacks.error("error reading server accept: %v\n", err)
			return false
		}
		ctx.Callbacks.info("server accept: client_id=%x, sim_millis=%d, interval=%d msec\n", m.ClientID, m.SimTimeMillis, m.IntervalMillis)
		ctx.setTimeDiff(m.SimTimeMillis, nowMillis)
		local.intervalMillis = m.IntervalMillis
		local.id = m.ClientID
		return true
	}
	if message.IsReject(local.buf) {
		_, reason, err := message.ReadReject(local.buf)
		if err != nil {
			ctx.Callbacks.error("error reading server reject: %v\n", err)
			return false
		}
		ctx.Callbacks.info("server reject, reason: %x\n", reason)
		return false
	}
	ctx.Callbacks.error("no valid server response\n")
	return false
}

// establishConnection drives the client side of the handshake: send
// Request, wait (with RecvTimeoutMillis) for Accept/Reject, and retry on
// timeout if ConnectIntervalMillis > 0. A Reject fails at once.
func establishConnection(ctx *Context, local *localEndpoint, remote *remoteEndpoint) bool {
	if err := netutil.SetReadTimeout(local.conn, RecvTimeoutMillis*time.Millisecond); err != nil {
		ctx.Callbacks.error("failed to set response timeout: %v\n", err)
		return false
	}

	for !ctx.StopLocal.Load() {
		if !sendRequest(ctx, local, remote) {
			return false
		}
		if waitForResponse(ctx, local, remote) {
			break
		}
		// An explicit Reject is final; only a timeout or an unusable
		// response is retried.
		if ctx.ConnectIntervalMillis > 0 && !message.IsReject(local.buf) {
			time.Sleep(time.Duration(ctx.ConnectIntervalMillis) * time.Millisecond)
		} else {
			return false
		}
	}

	netutil.SetReadTimeout(local.conn, 0)
	return !ctx.StopLocal.Load()
}
