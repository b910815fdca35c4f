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

// SimpleTrack is one record of the minimal track state: identity, ordinal
// and kinematics. MsgOrdinal starts at 1 and increments once per update a
// given track id reports.
type SimpleTrack struct {
	ID           string
	MsgOrdinal   int32
	Flags        int32
	TimeMillis   int64
	LatDeg       float64
	LonDeg       float64
	AltM         float64
	HeadingDeg   float64
	SpeedMSec    float64
	VerticalMSec float64
}

// ExtendedTrack adds attitude and a free-form vehicle type string on top of
// SimpleTrack's kinematic state.
type ExtendedTrack struct {
	SimpleTrack
	PitchDeg  float64
	RollDeg   float64
	TrackType string
}

// WriteSimpleTrack appends one track record at pos. It returns ok=false
// without having written anything usable if the buffer ran out of room.
func WriteSimpleTrack(b *databuf.Buffer, pos int, t SimpleTrack) (int, bool) {
	p, ok := b.WriteString(pos, t.ID)
	if !ok {
		return pos, false
	}
	if p, ok = b.WriteInt32(p, t.MsgOrdinal); !ok {
		return pos, false
	}
	if p, ok = b.WriteInt32(p, t.Flags); !ok {
		return pos, false
	}
	if p, ok = b.WriteInt64(p, t.TimeMillis); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, t.LatDeg); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, t.LonDeg); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, t.AltM); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, t.HeadingDeg); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, t.SpeedMSec); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, t.VerticalMSec); !ok {
		return pos, false
	}
	return p, true
}

// ReadSimpleTrack decodes one track record starting at pos.
func ReadSimpleTrack(b *databuf.Buffer, pos int) (SimpleTrack, int, error) {
	var t SimpleTrack
	var ok bool

	if t.ID, pos, ok = b.ReadString(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.MsgOrdinal, pos, ok = b.ReadInt32(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.Flags, pos, ok = b.ReadInt32(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.TimeMillis, pos, ok = b.ReadInt64(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.LatDeg, pos, ok = b.ReadFloat64(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.LonDeg, pos, ok = b.ReadFloat64(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.AltM, pos, ok = b.ReadFloat64(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.HeadingDeg, pos, ok = b.ReadFloat64(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.SpeedMSec, pos, ok = b.ReadFloat64(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.VerticalMSec, pos, ok = b.ReadFloat64(pos); !ok {
		return t, pos, ErrTruncated
	}
	return t, pos, nil
}

// WriteExtendedTrack appends one extended track record (SimpleTrack plus
// attitude and vehicle type) at pos.
func WriteExtendedTrack(b *databuf.Buffer, pos int, t ExtendedTrack) (int, bool) {
	p, ok := WriteSimpleTrack(b, pos, t.SimpleTrack)
	if !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, t.PitchDeg); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, t.RollDeg); !ok {
		return pos, false
	}
	if p, ok = b.WriteString(p, t.TrackType); !ok {
		return pos, false
	}
	return p, true
}

// ReadExtendedTrack decodes one extended track record starting at pos.
func ReadExtendedTrack(b *databuf.Buffer, pos int) (ExtendedTrack, int, error) {
	var t ExtendedTrack
	var err error

	if t.SimpleTrack, pos, err = ReadSimpleTrack(b, pos); err != nil {
		return t, pos, err
	}
	var ok bool
	if t.PitchDeg, pos, ok = b.ReadFloat64(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.RollDeg, pos, ok = b.ReadFloat64(pos); !ok {
		return t, pos, ErrTruncated
	}
	if t.TrackType, pos, ok = b.ReadString(pos); !ok {
		return t, pos, ErrTruncated
	}
	return t, pos, nil
}

// WriteTrackMsg writes the TrackMsg envelope (message type, record count)
// followed by each of tracks. It stops and returns the position after the
// last fully-written record if a track doesn't fit, so the caller can flush
// what was written and start a fresh Data message for the remainder.
func WriteTrackMsg(b *databuf.Buffer, pos int, tracks []SimpleTrack) (int, int) {
	p, ok := writeEnvelopeHeader(b, pos, TrackMsgType, len(tracks))
	if !ok {
		return pos, 0
	}
	written := 0
	for _, t := range tracks {
		next, ok := WriteSimpleTrack(b, p, t)
		if !ok {
			break
		}
		p = next
		written++
	}
	if written != len(tracks) {
		b.SetInt16(pos+4, int16(written))
	}
	return p, written
}

// ReadTrackMsg decodes a TrackMsg envelope and all of its records.
func ReadTrackMsg(b *databuf.Buffer, pos int) ([]SimpleTrack, int, error) {
	n, p, err := readEnvelopeHeader(b, pos, TrackMsgType)
	if err != nil {
		return nil, pos, err
	}
	tracks := make([]SimpleTrack, 0, n)
	for i := 0; i < n; i++ {
		var t SimpleTrack
		t, p, err = ReadSimpleTrack(b, p)
		if err != nil {
			return tracks, p, err
		}
		tracks = append(tracks, t)
	}
	return tracks, p, nil
}

// WriteExtendedTrackMsg is the ExtendedTrack counterpart of WriteTrackMsg.
func WriteExtendedTrackMsg(b *databuf.Buffer, pos int, tracks []ExtendedTrack) (int, int) {
	p, ok := writeEnvelopeHeader(b, pos, TrackMsgType, len(tracks))
	if !ok {
		return pos, 0
	}
	written := 0
	for _, t := range tracks {
		next, ok := WriteExtendedTrack(b, p, t)
		if !ok {
			break
		}
		p = next
		written++
	}
	if written != len(tracks) {
		b.SetInt16(pos+4, int16(written))
	}
	return p, written
}

// ReadExtendedTrackMsg is the ExtendedTrack counterpart of ReadTrackMsg.
func ReadExtendedTrackMsg(b *databuf.Buffer, pos int) ([]ExtendedTrack, int, error) {
	n, p, err := readEnvelopeHeader(b, pos, TrackMsgType)
	if err != nil {
		return nil, pos, err
	}
	tracks := make([]ExtendedTrack, 0, n)
	for i := 0; i < n; i++ {
		var t ExtendedTrack
		t, p, err = ReadExtendedTrack(b, p)
		if err != nil {
			return tracks, p, err
		}
		tracks = append(tracks, t)
	}
	return tracks, p, nil
}
