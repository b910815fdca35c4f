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

// Package telemetry implements the off-the-shelf track, proximity and drop
// record codecs that ride on top of an adapter connection's Data payload.
// The connection engine itself is agnostic to payload shape (Callbacks.WriteData
// and Callbacks.ReadData hand it raw buffer positions); this package supplies
// the concrete encodings a host program wires into those callbacks.
package telemetry

import (
	"errors"

	"github.com/NASARace/race-adapter-go/databuf"
)

// Schema identifiers, reported in a connection's handshake Request so
// both ends agree on which record layout the Data payload carries.
const (
	SimpleTrackSchema   = "gov.nasa.race.air.SimpleTrackProtocol"
	ExtendedTrackSchema = "gov.nasa.race.air.ExtendedTrackProtocol"
)

// Envelope message types, stamped as the first int32 of a Data payload
// ahead of the int16 record count and the records themselves.
const (
	TrackMsgType     = int32(1)
	ProximityMsgType = int32(2)
	DropMsgType      = int32(3)
)

// Track flags.
const (
	TrackNoReport = int32(0)
	TrackNew      = int32(0x1)
	TrackChange   = int32(0x2)
	TrackDrop     = int32(0x4)
	TrackComplete = int32(0x8)
	TrackFrozen   = int32(0x10)
)

// Proximity flags.
const (
	ProxNew    = int32(0x1)
	ProxChange = int32(0x2)
	ProxDrop   = int32(0x4)
)

// ErrNoSpace describes a record that does not fit in the buffer. The Write
// functions in this package do not return it: they report that case with
// ok=false (per record) or a short written count (per envelope).
var ErrNoSpace = errors.New("telemetry: not enough space left in buffer")

// ErrTruncated is returned by Read functions when the buffer ran out before
// a complete record could be decoded.
var ErrTruncated = errors.New("telemetry: truncated record")

func writeEnvelopeHeader(b *databuf.Buffer, pos int, msgType int32, nRecords int) (int, bool) {
	pos, ok := b.WriteInt32(pos, msgType)
	if !ok {
		return pos, false
	}
	return b.WriteInt16(pos, int16(nRecords))
}

func readEnvelopeHeader(b *databuf.Buffer, pos int, wantType int32) (int, int, error) {
	msgType, pos, ok := b.ReadInt32(pos)
	if !ok {
		return 0, 0, ErrTruncated
	}
	if msgType != wantType {
		return 0, 0, errors.New("telemetry: unexpected envelope message type")
	}
	n, pos, ok := b.ReadInt16(pos)
	if !ok {
		return 0, 0, ErrTruncated
	}
	return int(n), pos, nil
}
