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

// Package simtrack provides a minimal great-circle dead-reckoning track
// generator, shared by testserver and testclient to exercise the telemetry
// codecs without a real data source.
package simtrack

import (
	"fmt"
	"math"

	"github.com/NASARace/race-adapter-go/telemetry"
)

// EarthRadiusM is the mean Earth radius used for the dead-reckoning update.
const EarthRadiusM = 6371000.0

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }
func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// Track is a single simulated aircraft advancing along a great circle at
// constant speed and heading, starting over KNUQ (Moffett Field) by default.
type Track struct {
	ID         string
	MsgOrdinal int32
	TimeMillis int64
	LatDeg     float64
	LonDeg     float64
	AltM       float64
	HeadingDeg float64
	SpeedMSec  float64
}

// New returns the index'th simulated track, staggered in position and
// heading so multiple tracks don't overlap.
func New(index int, nowMillis int64) *Track {
	return &Track{
		ID:         fmt.Sprintf("SIM%03d", index),
		TimeMillis: nowMillis,
		LatDeg:     37.4161389 + float64(index)*0.05,
		LonDeg:     -122.0491389 - float64(index)*0.05,
		AltM:       10000.0,
		HeadingDeg: 84.0 + float64(index)*17.0,
		SpeedMSec:  205.7, // ~400 kn
	}
}

// Advance moves the track forward to nowMillis along its great circle.
func (t *Track) Advance(nowMillis int64) {
	t.MsgOrdinal++

	dtSec := float64(nowMillis-t.TimeMillis) / 1000.0
	t.TimeMillis = nowMillis
	if dtSec <= 0 {
		return
	}

	dist := dtSec * t.SpeedMSec
	delta := dist / (EarthRadiusM + t.AltM)
	lat := radians(t.LatDeg)
	lon := radians(t.LonDeg)
	hdg := radians(t.HeadingDeg)

	lat1 := math.Asin(math.Sin(lat)*math.Cos(delta) + math.Cos(lat)*math.Sin(delta)*math.Cos(hdg))
	lon1 := lon + math.Atan2(math.Sin(hdg)*math.Sin(delta)*math.Cos(lat), math.Cos(delta)-math.Sin(lat)*math.Sin(lat1))

	t.LatDeg = degrees(lat1)
	t.LonDeg = degrees(lon1)
}

// SimpleTrack renders the current state as a telemetry.SimpleTrack record.
func (t *Track) SimpleTrack(flags int32) telemetry.SimpleTrack {
	return telemetry.SimpleTrack{
		ID:         t.ID,
		MsgOrdinal: t.MsgOrdinal,
		Flags:      flags,
		TimeMillis: t.TimeMillis,
		LatDeg:     t.LatDeg,
		LonDeg:     t.LonDeg,
		AltM:       t.AltM,
		HeadingDeg: t.HeadingDeg,
		SpeedMSec:  t.SpeedMSec,
	}
}
