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
	"bufio"
	"os"
	"strings"
	"testing"
	"time"
)

func TestStatsLoggerDisabledOnEmptyPath(t *testing.T) {
	ctx := &Context{}
	ctx.StopLocal.Store(true) // loop body must never run
	StatsLogger(ctx, "", 10*time.Millisecond)
	StatsLogger(ctx, "/tmp/should-not-be-created.csv", 0)
	if _, err := os.Stat("/tmp/should-not-be-created.csv"); !os.IsNotExist(err) {
		t.Fatalf("StatsLogger with interval<=0 must not create a file")
	}
}

func TestStatsLoggerWritesHeaderAndRow(t *testing.T) {
	// The file part of the path is run through time.Format, so it must hold
	// no layout tokens (digits included) to end up at this literal name.
	path := t.TempDir() + "/stats.csv" // StatsLogger must create it fresh

	ctx := &Context{}
	ctx.Stats.MsgsSent.Store(3)
	ctx.Stats.BytesSent.Store(123)
	ctx.Stats.Dropped.Store(1)

	done := make(chan struct{})
	go func() {
		StatsLogger(ctx, path, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	ctx.StopLocal.Store(true)
	<-done

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := []string{}
	sc := bufio.NewScanner(strings.NewReader(string(content)))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) < 2 {
		t.Fatalf("expected a header row and at least one data row, got %q", content)
	}
	if !strings.HasPrefix(lines[0], "Unix,MsgsSent,BytesSent,MsgsRecv,BytesRecv,Dropped,Rejected") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], ",3,123,") {
		t.Fatalf("row missing expected counters: %q", lines[1])
	}
}
