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

package telemetry

import "github.com/NASARace/race-adapter-go/databuf"

// DroppedTrack reports that a track id is no longer being reported. Flags
// says why (TrackDrop, TrackComplete, ...).
type DroppedTrack struct {
	ID         string
	Flags      int32
	TimeMillis int64
}

// WriteDrop appends one dropped-track record at pos.
func WriteDrop(b *databuf.Buffer, pos int, d DroppedTrack) (int, bool) {
	p, ok := b.WriteString(pos, d.ID)
	if !ok {
		return pos, false
	}
	if p, ok = b.WriteInt32(p, d.Flags); !ok {
		return pos, false
	}
	if p, ok = b.WriteInt64(p, d.TimeMillis); !ok {
		return pos, false
	}
	return p, true
}

// ReadDrop decodes one dropped-track record starting at pos.
func ReadDrop(b *databuf.Buffer, pos int) (DroppedTrack, int, error) {
	var d DroppedTrack
	var ok bool

	if d.ID, pos, ok = b.ReadString(pos); !ok {
		return d, pos, ErrTruncated
	}
	if d.Flags, pos, ok = b.ReadInt32(pos); !ok {
		return d, pos, ErrTruncated
	}
	if d.TimeMillis, pos, ok = b.ReadInt64(pos); !ok {
		return d, pos, ErrTruncated
	}
	return d, pos, nil
}

// WriteDropMsg writes the DropMsg envelope followed by each of drops.
func WriteDropMsg(b *databuf.Buffer, pos int, drops []DroppedTrack) (int, int) {
	p, ok := writeEnvelopeHeader(b, pos, DropMsgType, len(drops))
	if !ok {
		return pos, 0
	}
	written := 0
	for _, d := range drops {
		next, ok := WriteDrop(b, p, d)
		if !ok {
			break
		}
		p = next
		written++
	}
	if written != len(drops) {
		b.SetInt16(pos+4, int16(written))
	}
	return p, written
}

// ReadDropMsg decodes a DropMsg envelope and all of its records.
func ReadDropMsg(b *databuf.Buffer, pos int) ([]DroppedTrack, int, error) {
	n, p, err := readEnvelopeHeader(b, pos, DropMsgType)
	if err != nil {
		return nil, pos, err
	}
	drops := make([]DroppedTrack, 0, n)
	for i := 0; i < n; i++ {
		var d DroppedTrack
		d, p, err = ReadDrop(b, p)
		if err != nil {
			return drops, p, err
		}
		drops = append(drops, d)
	}
	return drops, p, nil
}
