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

package main

import (
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/NASARace/race-adapter-go/adapter"
	"github.com/NASARace/race-adapter-go/databuf"
	"github.com/NASARace/race-adapter-go/message"
	"github.com/NASARace/race-adapter-go/simtrack"
	"github.com/NASARace/race-adapter-go/telemetry"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "testserver"
	myApp.Usage = "reference RACE telemetry adapter server, broadcasts simulated SimpleTrack data"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "listen,l",
			Value: "50036",
			Usage: "port to listen on for client requests",
		},
		cli.StringFlag{
			Name:  "schema",
			Value: telemetry.SimpleTrackSchema,
			Usage: "data schema advertised to clients",
		},
		cli.IntFlag{
			Name:  "interval",
			Value: 5000,
			Usage: "milliseconds between track broadcasts, used when the client requests no interval of its own",
		},
		cli.IntFlag{
			Name:  "tracks",
			Value: 1,
			Usage: "number of simulated tracks to broadcast",
		},
		cli.BoolFlag{
			Name:  "poll",
			Usage: "use the polling connection variant instead of the threaded one",
		},
		cli.IntFlag{
			Name:  "maxconnections",
			Value: 0,
			Usage: "reject requests once this many clients are connected, 0 for unlimited",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "suppress per-tick info logging",
		},
		cli.StringFlag{
			Name:  "c",
			Value: "",
			Usage: "config from json file, which will override the command from shell",
		},
		cli.StringFlag{
			Name:  "statslog",
			Value: "",
			Usage: "append traffic counters as CSV to this file every 10 seconds, empty to disable",
		},
	}
	myApp.Action = runServer
	if err := myApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(c *cli.Context) error {
	config := Config{}
	config.Listen = c.String("listen")
	config.Schema = c.String("schema")
	config.Interval = c.Int("interval")
	config.NumTracks = c.Int("tracks")
	config.Poll = c.Bool("poll")
	config.MaxConnections = c.Int("maxconnections")
	config.Log = c.String("log")
	config.Quiet = c.Bool("quiet")
	config.StatsLog = c.String("statslog")

	if c.String("c") != "" {
		if err := parseJSONConfig(&config, c.String("c")); err != nil {
			return errors.Wrap(err, "loading json config")
		}
	}

	if config.Log != "" {
		f, err := os.OpenFile(config.Log, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return errors.Wrap(err, "opening log file")
		}
		defer f.Close()
		log.SetOutput(f)
	}

	log.Println("version:", VERSION)
	log.Println("listening on:", config.Listen)
	log.Println("schema:", config.Schema)
	log.Println("interval:", config.Interval, "msec")
	log.Println("tracks:", config.NumTracks)
	log.Println("poll:", config.Poll)

	ctx := adapter.NewContext("", config.Listen, config.Schema, adapter.DataSender|adapter.DataReceiver, int32(config.Interval))
	ctx.Callbacks.Info = func(format string, args ...any) {
		if !config.Quiet {
			log.Printf(color.CyanString("[INFO] ")+format, args...)
		}
	}
	ctx.Callbacks.Warning = func(format string, args ...any) {
		log.Printf(color.YellowString("[WARN] ")+format, args...)
	}
	ctx.Callbacks.Error = func(format string, args ...any) {
		log.Printf(color.RedString("[ERROR] ")+format, args...)
	}

	var nConnected atomic.Int32
	ctx.Callbacks.CheckRequest = func(host, service string, reqFlags int32, schema string, simMillis *int64, intervalMillis *int32) int32 {
		log.Printf("client request from %s:%s, flags=%x, schema=%s, interval=%d\n", host, service, reqFlags, schema, *intervalMillis)

		var reason int32
		if schema != config.Schema {
			log.Printf("rejecting unknown schema: %s\n", schema)
			reason |= message.RejectUnknownData
		}
		if config.MaxConnections > 0 && int(nConnected.Load()) >= config.MaxConnections {
			log.Printf("rejecting, already at max connections (%d)\n", config.MaxConnections)
			reason |= message.RejectNoMoreConnections
		}
		if *intervalMillis == adapter.NoIntervalPreference {
			*intervalMillis = int32(config.Interval)
		}
		return reason
	}
	ctx.Callbacks.ConnectionStarted = func() {
		nConnected.Add(1)
		log.Println("connection started")
	}
	ctx.Callbacks.ConnectionTerminated = func() {
		nConnected.Add(-1)
		log.Println("connection terminated")
	}

	tracks := make([]*simtrack.Track, config.NumTracks)
	now := time.Now().UnixMilli()
	for i := range tracks {
		tracks[i] = simtrack.New(i, now)
	}

	ctx.Callbacks.WriteData = func(b *databuf.Buffer, pos int) int {
		now := time.Now().UnixMilli()
		records := make([]telemetry.SimpleTrack, len(tracks))
		for i, tr := range tracks {
			tr.Advance(now)
			records[i] = tr.SimpleTrack(telemetry.TrackNew)
		}
		newPos, written := telemetry.WriteTrackMsg(b, pos, records)
		if written != len(records) {
			log.Printf("track payload truncated: wrote %d of %d tracks\n", written, len(records))
		}
		return newPos
	}
	ctx.Callbacks.ReadData = func(b *databuf.Buffer, pos int) {
		trackMsg, _, err := telemetry.ReadTrackMsg(b, pos)
		if err != nil {
			log.Printf("error decoding client track data: %v\n", err)
			return
		}
		log.Printf("received %d tracks from client:\n", len(trackMsg))
		for _, tr := range trackMsg {
			log.Printf("   %s: t=%d, lat=%.6f, lon=%.6f, alt=%.1f, hdg=%.1f, spd=%.1f\n",
				tr.ID, tr.TimeMillis, tr.LatDeg, tr.LonDeg, tr.AltM, tr.HeadingDeg, tr.SpeedMSec)
		}
	}

	go adapter.StatsLogger(ctx, config.StatsLog, 10*time.Second)

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stopSignal
		log.Println("received interrupt, shutting down")
		ctx.StopLocal.Store(true)
	}()

	log.Println("running test server, terminate with ctrl-c")
	var ok bool
	if config.Poll {
		ok = adapter.ServerPoll(ctx)
	} else {
		ok = adapter.Server(ctx)
	}
	if !ok {
		return errors.New("server terminated with an error")
	}
	return nil
}
