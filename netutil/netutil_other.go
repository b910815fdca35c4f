// +build !linux,!darwin,!freebsd

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

package netutil

import (
	"net"
	"time"
)

// maxDatagramSize mirrors message.MaxMsgLen (the largest a single datagram
// may be); duplicated here rather than imported to keep netutil below
// message in the dependency order.
const maxDatagramSize = 2048

// peekAvailable falls back to a short-deadline read on platforms without a
// raw MSG_PEEK path wired up (netutil_unix.go covers linux/darwin/freebsd).
// A UDP recv dequeues the whole datagram regardless of buffer size or
// deadline, so there is no way to ask "is something queued" here without
// actually reading it. To keep CheckAvailable's non-destructive contract
// for its caller, any datagram this read does consume is stashed via
// stashPending and handed back by the next ReadFromUDP call on the same
// conn instead of being discarded.
func peekAvailable(conn *net.UDPConn) (bool, error) {
	// A deadline already in the past would fail the read before it looks
	// at the socket, so give it a short positive window instead.
	if err := conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false, err
	}
	defer conn.SetReadDeadline(time.Time{})

	buf := make([]byte, maxDatagramSize)
	n, addr, err := conn.ReadFromUDP(buf)
	if err == nil {
		stashPending(conn, buf[:n], addr)
		return true, nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return false, nil
	}
	return false, err
}
