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

	"github.com/NASARace/race-adapter-go/netutil"
)

// pollMessages drains up to MaxPolledMsgs queued datagrams from local on
// the calling goroutine, never blocking. Unlike the original this caps
// correctly: the original's equivalent loop counter was declared but never
// incremented, so its bound was never actually enforced.
func pollMessages(ctx *Context, local *localEndpoint, remote *remoteEndpoint) {
	for n := 0; n < MaxPolledMsgs; n++ {
		available, err := netutil.CheckAvailable(local.conn)
		if err != nil {
			ctx.Callbacks.error("polling remote availability failed (%v)\n", err)
			return
		}
		if !available {
			return
		}
		receiveMessage(ctx, local.conn, remote)
	}
}

// runConnectionPolling interleaves send and receive on a single goroutine,
// polling for inbound messages before each send tick instead of running a
// dedicated receiver goroutine. Useful for embedding in a host program that
// already owns its own event loop and cannot spare a background goroutine.
func runConnectionPolling(ctx *Context, local *localEndpoint, remote *remoteEndpoint) bool {
	remote.setState(StateActive)

	if ctx.Callbacks.ConnectionStarted != nil {
		ctx.Callbacks.ConnectionStarted()
	}

	ok := true
	for !remote.isStopped() && !ctx.StopLocal.Load() {
		pollMessages(ctx, local, remote) // may flip remote's state to Stopped/Paused

		if !remote.isStopped() {
			if !sendData(ctx, local, remote) {
				ok = false
				break
			}
			time.Sleep(time.Duration(local.intervalMillis) * time.Millisecond)
		}
	}

	if ok && ctx.StopLocal.Load() && !remote.isStopped() {
		sendData(ctx, local, remote)
		sendStop(ctx, local, remote)
	}

	if ctx.Callbacks.ConnectionTerminated != nil {
		ctx.Callbacks.ConnectionTerminated()
	}
	return ok
}
