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
	"sync/atomic"

	"github.com/NASARace/race-adapter-go/databuf"
	"github.com/NASARace/race-adapter-go/message"
)

// ConnectionState is the explicit state of a remote connection's lifecycle,
// reified as a typed value instead of the boolean "is_stopped" flag the
// engine this is ported from uses.
type ConnectionState int32

const (
	StateNew ConnectionState = iota
	StateActive
	StatePaused
	StateStopped
)

func (s ConnectionState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// localEndpoint is this process's socket, send buffer and per-connection
// send interval.
type localEndpoint struct {
	conn           *net.UDPConn
	buf            *databuf.Buffer
	id             int32
	intervalMillis int32
}

func newLocalEndpoint(conn *net.UDPConn, id int32, intervalMillis int32) *localEndpoint {
	return &localEndpoint{
		conn:           conn,
		buf:            databuf.NewSize(message.MaxMsgLen),
		id:             id,
		intervalMillis: intervalMillis,
	}
}

// remoteEndpoint is the other side of an established connection: its
// address, assigned id, and the time-ordering/state bookkeeping the
// receive path needs.
type remoteEndpoint struct {
	addr *net.UDPAddr

	id          int32
	timeRequest int64
	timeLast    int64

	state atomic.Int32
}

func newRemoteEndpoint(addr *net.UDPAddr, id int32, timeSent int64) *remoteEndpoint {
	r := &remoteEndpoint{addr: addr, id: id, timeRequest: timeSent, timeLast: timeSent}
	r.state.Store(int32(StateNew))
	return r
}

func (r *remoteEndpoint) State() ConnectionState { return ConnectionState(r.state.Load()) }
func (r *remoteEndpoint) setState(s ConnectionState) { r.state.Store(int32(s)) }
func (r *remoteEndpoint) isStopped() bool { return r.State() == StateStopped }
