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

// ProximityChange reports a nearby track (the proximity) relative to a
// reference track (RefID). There is no msg ordinal: the proximity position
// may be extrapolated rather than directly observed.
type ProximityChange struct {
	RefID      string
	RefLatDeg  float64
	RefLonDeg  float64
	RefAltM    float64
	DistM      float64
	Flags      int32
	ID         string
	TimeMillis int64
	LatDeg     float64
	LonDeg     float64
	AltM       float64
	HeadingDeg float64
	SpeedMSec  float64
}

// WriteProximity appends one proximity record at pos.
func WriteProximity(b *databuf.Buffer, pos int, pc ProximityChange) (int, bool) {
	p, ok := b.WriteString(pos, pc.RefID)
	if !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, pc.RefLatDeg); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, pc.RefLonDeg); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, pc.RefAltM); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, pc.DistM); !ok {
		return pos, false
	}
	if p, ok = b.WriteInt32(p, pc.Flags); !ok {
		return pos, false
	}
	if p, ok = b.WriteString(p, pc.ID); !ok {
		return pos, false
	}
	if p, ok = b.WriteInt64(p, pc.TimeMillis); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, pc.LatDeg); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, pc.LonDeg); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, pc.AltM); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, pc.HeadingDeg); !ok {
		return pos, false
	}
	if p, ok = b.WriteFloat64(p, pc.SpeedMSec); !ok {
		return pos, false
	}
	return p, true
}

// ReadProximity decodes one proximity record starting at pos.
func ReadProximity(b *databuf.Buffer, pos int) (ProximityChange, int, error) {
	var pc ProximityChange
	var ok bool

	if pc.RefID, pos, ok = b.ReadString(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.RefLatDeg, pos, ok = b.ReadFloat64(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.RefLonDeg, pos, ok = b.ReadFloat64(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.RefAltM, pos, ok = b.ReadFloat64(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.DistM, pos, ok = b.ReadFloat64(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.Flags, pos, ok = b.ReadInt32(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.ID, pos, ok = b.ReadString(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.TimeMillis, pos, ok = b.ReadInt64(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.LatDeg, pos, ok = b.ReadFloat64(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.LonDeg, pos, ok = b.ReadFloat64(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.AltM, pos, ok = b.ReadFloat64(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.HeadingDeg, pos, ok = b.ReadFloat64(pos); !ok {
		return pc, pos, ErrTruncated
	}
	if pc.SpeedMSec, pos, ok = b.ReadFloat64(pos); !ok {
		return pc, pos, ErrTruncated
	}
	return pc, pos, nil
}

// WriteProximityMsg writes the ProximityMsg envelope followed by each of
// proximities, truncating like WriteTrackMsg if the buffer fills up.
func WriteProximityMsg(b *databuf.Buffer, pos int, proximities []ProximityChange) (int, int) {
	p, ok := writeEnvelopeHeader(b, pos, ProximityMsgType, len(proximities))
	if !ok {
		return pos, 0
	}
	written := 0
	for _, pc := range proximities {
		next, ok := WriteProximity(b, p, pc)
		if !ok {
			break
		}
		p = next
		written++
	}
	if written != len(proximities) {
		b.SetInt16(pos+4, int16(written))
	}
	return p, written
}

// ReadProximityMsg decodes a ProximityMsg envelope and all of its records.
func ReadProximityMsg(b *databuf.Buffer, pos int) ([]ProximityChange, int, error) {
	n, p, err := readEnvelopeHeader(b, pos, ProximityMsgType)
	if err != nil {
		return nil, pos, err
	}
	proximities := make([]ProximityChange, 0, n)
	for i := 0; i < n; i++ {
		var pc ProximityChange
		pc, p, err = ReadProximity(b, p)
		if err != nil {
			return proximities, p, err
		}
		proximities = append(proximities, pc)
	}
	return proximities, p, nil
}
