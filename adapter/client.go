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
	"time"

	"github.com/NASARace/race-adapter-go/message"
	"github.com/NASARace/race-adapter-go/netutil"
)

// initializeLocalClient resolves host:port and retries opening the socket
// at ConnectIntervalMillis until it succeeds or StopLocal is set. Getting a
// socket only means the server name resolved; it says nothing about
// whether anyone is listening yet (UDP has no connect-time handshake).
func initializeLocalClient(ctx *Context) (*localEndpoint, *remoteEndpoint) {
	for {
		conn, remoteAddr, err := netutil.ClientSocket(ctx.Host, ctx.Port)
		if err == nil {
			local := newLocalEndpoint(conn, message.NoID, ctx.IntervalMillis)
			// The server always stamps its outgoing messages with
			// message.ServerID regardless of which client they go to, so
			// that's the sender id this side's receive path must match.
			remote := newRemoteEndpoint(remoteAddr, message.ServerID, 0)
			return local, remote
		}
		if ctx.ConnectIntervalMillis == 0 {
			ctx.Callbacks.error("failed to open client socket to %s:%s (%v)\n", ctx.Host, ctx.Port, err)
			return nil, nil
		}
		if ctx.StopLocal.Load() {
			return nil, nil
		}
		time.Sleep(time.Duration(ctx.ConnectIntervalMillis) * time.Millisecond)
	}
}

// Client runs the connect loop: resolve the server, perform the handshake,
// and run one connection to completion. It returns false on a fatal setup
// or handshake failure, including a Reject from the server; if
// ConnectIntervalMillis > 0 the handshake retries a timed-out or unusable
// response internally rather than failing fast.
func Client(ctx *Context) bool {
	if ctx == nil {
		return false
	}

	local, remote := initializeLocalClient(ctx)
	if local == nil {
		return false
	}

	if !establishConnection(ctx, local, remote) {
		return false
	}
	ok := runConnectionThreaded(ctx, local, remote)
	localTerminated(ctx, local)
	return ok
}

// ClientPoll is the polling-variant counterpart of Client.
func ClientPoll(ctx *Context) bool {
	if ctx == nil {
		return false
	}

	local, remote := initializeLocalClient(ctx)
	if local == nil {
		return false
	}

	if !establishConnection(ctx, local, remote) {
		return false
	}
	ok := runConnectionPolling(ctx, local, remote)
	localTerminated(ctx, local)
	return ok
}
