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
	"github.com/NASARace/race-adapter-go/message"
	"github.com/NASARace/race-adapter-go/netutil"
)

func initializeLocalServer(ctx *Context) *localEndpoint {
	conn, err := netutil.ServerSocket(ctx.Port)
	if err != nil {
		ctx.Callbacks.error("failed to open server socket (%v)\n", err)
		return nil
	}
	return newLocalEndpoint(conn, message.ServerID, ctx.IntervalMillis)
}

func localTerminated(ctx *Context, local *localEndpoint) {
	ctx.Callbacks.info("local terminating\n")
	if err := local.conn.Close(); err != nil {
		ctx.Callbacks.error("closing socket failed (%v)\n", err)
	}
}

// Server runs the accept loop: bind, then repeatedly wait for a client
// Request, run one connection to completion, and wait for the next client.
// It returns false only on a fatal local setup error (e.g. failing to
// bind); a rejected handshake is not fatal and simply loops back to
// waiting for the next request. ConnectionTerminated does not fire for a
// rejected or malformed handshake attempt, only for an established
// connection that ends.
func Server(ctx *Context) bool {
	if ctx == nil {
		return false
	}

	local := initializeLocalServer(ctx)
	if local == nil {
		return false
	}

	for !ctx.StopLocal.Load() {
		remote := waitForRequest(ctx, local)
		if remote != nil && !runConnectionThreaded(ctx, local, remote) {
			ctx.Callbacks.error("connection to remote %x ended with a send failure\n", remote.id)
		}
	}
	localTerminated(ctx, local)
	return true
}

// ServerPoll is the polling-variant counterpart of Server, for host
// programs that drive their own event loop instead of spawning a receiver
// goroutine per connection.
func ServerPoll(ctx *Context) bool {
	if ctx == nil {
		return false
	}

	local := initializeLocalServer(ctx)
	if local == nil {
		return false
	}

	for !ctx.StopLocal.Load() {
		remote := waitForRequest(ctx, local)
		if remote != nil && !runConnectionPolling(ctx, local, remote) {
			ctx.Callbacks.error("connection to remote %x ended with a send failure\n", remote.id)
		}
	}
	localTerminated(ctx, local)
	return true
}
