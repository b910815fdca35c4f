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

// Package netutil wraps the UDP socket primitives the adapter engine needs:
// server bind, client resolve, and deadline-based blocking/non-blocking
// reads. Go has no distinct blocking/non-blocking socket mode, so a bounded
// recv is modeled as a read deadline and an unbounded one as a cleared
// deadline.
package netutil

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ServerSocket binds a UDP4 socket on the given port (e.g. "8080" or
// ":8080") for receiving from any client.
func ServerSocket(port string) (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp4", ":"+trimLeadingColon(port))
	if err != nil {
		return nil, errors.Wrap(err, "ServerSocket: resolve")
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, errors.Wrap(err, "ServerSocket: listen")
	}
	return conn, nil
}

func trimLeadingColon(port string) string {
	if len(port) > 0 && port[0] == ':' {
		return port[1:]
	}
	return port
}

// ClientSocket resolves host:service and opens an unconnected UDP socket
// that can subsequently send to (and receive from) that address. The
// socket is left unconnected, mirroring the original adapter's client
// socket, so a caller can re-resolve and retarget without recreating the
// descriptor.
func ClientSocket(host, service string) (*net.UDPConn, *net.UDPAddr, error) {
	remote, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, service))
	if err != nil {
		return nil, nil, errors.Wrap(err, "ClientSocket: resolve")
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "ClientSocket: listen")
	}
	return conn, remote, nil
}

// SetReadTimeout bounds the next read(s) on conn to d. d <= 0 clears the
// deadline, making subsequent reads block indefinitely (the "blocking
// mode" of the original socket API).
func SetReadTimeout(conn *net.UDPConn, d time.Duration) error {
	if d <= 0 {
		return conn.SetReadDeadline(time.Time{})
	}
	return conn.SetReadDeadline(time.Now().Add(d))
}

// CheckAvailable reports whether a datagram is currently queued on conn,
// without consuming it. The platform-specific peekAvailable (netutil_unix.go
// / netutil_other.go) does the actual non-destructive check.
func CheckAvailable(conn *net.UDPConn) (bool, error) {
	return peekAvailable(conn)
}

type pendingDatagram struct {
	data []byte
	addr *net.UDPAddr
}

var (
	pendingMu sync.Mutex
	pending   = map[*net.UDPConn]pendingDatagram{}
)

// stashPending records a datagram that a platform's peekAvailable had no
// choice but to actually read off the wire (no MSG_PEEK available), so the
// next ReadFromUDP can still hand it to the caller instead of silently
// dropping it.
func stashPending(conn *net.UDPConn, data []byte, addr *net.UDPAddr) {
	pendingMu.Lock()
	pending[conn] = pendingDatagram{data: data, addr: addr}
	pendingMu.Unlock()
}

// ReadFromUDP reads the next datagram addressed to conn into buf. If a
// prior CheckAvailable call on a platform without a true peek primitive had
// to consume a datagram to answer the readability question, that datagram
// is returned here first; only once the stash is empty does this fall
// through to a real conn.ReadFromUDP. On platforms with MSG_PEEK
// (netutil_unix.go) the stash is never populated and this is equivalent to
// calling conn.ReadFromUDP directly.
func ReadFromUDP(conn *net.UDPConn, buf []byte) (int, *net.UDPAddr, error) {
	pendingMu.Lock()
	dg, ok := pending[conn]
	if ok {
		delete(pending, conn)
	}
	pendingMu.Unlock()
	if ok {
		return copy(buf, dg.data), dg.addr, nil
	}
	return conn.ReadFromUDP(buf)
}
