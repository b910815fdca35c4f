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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StatsLogger periodically appends a CSV row of ctx.Stats to path, one row
// per interval. The file name itself is time.Format'ed against the current
// time on each tick, so a caller can roll logs by naming the path with a
// layout like "stats-20060102.csv". A zero path or non-positive interval is
// a no-op, matching a disabled feature rather than an error. Call from its
// own goroutine; it blocks until ctx.StopLocal is set.
func StatsLogger(ctx *Context, path string, interval time.Duration) {
	if path == "" || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	header := []string{"Unix", "MsgsSent", "BytesSent", "MsgsRecv", "BytesRecv", "Dropped", "Rejected"}

	for !ctx.StopLocal.Load() {
		<-ticker.C

		logdir, logfile := filepath.Split(path)
		f, err := os.OpenFile(logdir+time.Now().Format(logfile), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			ctx.Callbacks.error("opening stats log failed (%v)\n", err)
			continue
		}

		w := csv.NewWriter(f)
		if stat, err := f.Stat(); err == nil && stat.Size() == 0 {
			if err := w.Write(header); err != nil {
				ctx.Callbacks.error("writing stats header failed (%v)\n", err)
			}
		}

		row := []string{
			fmt.Sprint(time.Now().Unix()),
			fmt.Sprint(ctx.Stats.MsgsSent.Load()),
			fmt.Sprint(ctx.Stats.BytesSent.Load()),
			fmt.Sprint(ctx.Stats.MsgsRecv.Load()),
			fmt.Sprint(ctx.Stats.BytesRecv.Load()),
			fmt.Sprint(ctx.Stats.Dropped.Load()),
			fmt.Sprint(ctx.Stats.Rejected.Load()),
		}
		if err := w.Write(row); err != nil {
			ctx.Callbacks.error("writing stats row failed (%v)\n", err)
		}
		w.Flush()
		f.Close()
	}
}
