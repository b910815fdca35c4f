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
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/NASARace/race-adapter-go/adapter"
	"github.com/NASARace/race-adapter-go/databuf"
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
	myApp.Name = "testclient"
	myApp.Usage = "reference RACE telemetry adapter client, prints SimpleTrack data received from a server"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "remoteaddr, r",
			Value: "127.0.0.1:50036",
			Usage: "server address to connect to",
		},
		cli.StringFlag{
			Name:  "schema",
			Value: telemetry.SimpleTrackSchema,
			Usage: "data schema requested from the server",
		},
		cli.IntFlag{
			Name:  "interval",
			Value: int(adapter.NoIntervalPreference),
			Usage: "requested update interval in msec, -1 to defer to the server's default",
		},
		cli.BoolFlag{
			Name:  "send",
			Usage: "also send a simulated track to the server",
		},
		cli.BoolFlag{
			Name:  "poll",
			Usage: "use the polling connection variant instead of the threaded one",
		},
		cli.IntFlag{
			Name:  "retry",
			Value: 0,
			Usage: "milliseconds between handshake retries, 0 to fail immediately",
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
	myApp.Action = runClient
	if err := myApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runClient(c *cli.Context) error {
	config := Config{}
	config.RemoteAddr = c.String("remoteaddr")
	config.Schema = c.String("schema")
	config.Interval = c.Int("interval")
	config.Send = c.Bool("send")
	config.Poll = c.Bool("poll")
	config.Retry = c.Int("retry")
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

	host, port, err := net.SplitHostPort(config.RemoteAddr)
	if err != nil {
		return errors.Wrap(err, "parsing remoteaddr")
	}

	log.Println("version:", VERSION)
	log.Println("connecting to:", config.RemoteAddr)
	log.Println("schema:", config.Schema)
	log.Println("send:", config.Send)
	log.Println("poll:", config.Poll)

	flags := adapter.DataReceiver
	if config.Send {
		flags |= adapter.DataSender
	}

	ctx := adapter.NewContext(host, port, config.Schema, flags, int32(config.Interval))
	ctx.ConnectIntervalMillis = int32(config.Retry)
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
	ctx.Callbacks.ConnectionTerminated = func() {
		log.Println("connection terminated")
	}

	track := simtrack.New(0, time.Now().UnixMilli())
	if config.Send {
		ctx.Callbacks.WriteData = func(b *databuf.Buffer, pos int) int {
			track.Advance(time.Now().UnixMilli())
			newPos, _ := telemetry.WriteTrackMsg(b, pos, []telemetry.SimpleTrack{track.SimpleTrack(telemetry.TrackNew)})
			return newPos
		}
	}

	ctx.Callbacks.ReadData = func(b *databuf.Buffer, pos int) {
		trackMsg, _, err := telemetry.ReadTrackMsg(b, pos)
		if err != nil {
			log.Printf("error decoding server track data: %v\n", err)
			return
		}
		log.Printf(color.GreenString("received %d tracks")+"\n", len(trackMsg))
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

	log.Println("running test client, terminate with ctrl-c")
	var ok bool
	if config.Poll {
		ok = adapter.ClientPoll(ctx)
	} else {
		ok = adapter.Client(ctx)
	}
	if !ok {
		return errors.New("client terminated with an error")
	}
	return nil
}
