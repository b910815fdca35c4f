package message

import (
	"testing"

	"github.com/NASARace/race-adapter-go/databuf"
)

func TestRequestRoundTrip(t *testing.T) {
	b := databuf.NewSize(256)
	n := WriteRequest(b, 1000, RequestMsg{
		Flags:          1,
		Schema:         "gov.nasa.race.air.SimpleTrackProtocol",
		SimTimeMillis:  5000,
		IntervalMillis: 200,
	})
	b.Seek(n)

	if !IsRequest(b) {
		t.Fatalf("IsRequest = false")
	}
	hdr, m, err := ReadRequest(b)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if hdr.SenderID != NoID || hdr.SendTimeMillis != 1000 {
		t.Fatalf("unexpected header: %+v", hdr)
	}
	if m.Schema != "gov.nasa.race.air.SimpleTrackProtocol" || m.SimTimeMillis != 5000 || m.IntervalMillis != 200 {
		t.Fatalf("unexpected payload: %+v", m)
	}
}

func TestAcceptRoundTrip(t *testing.T) {
	b := databuf.NewSize(64)
	n := WriteAccept(b, 42, AcceptMsg{Flags: 0, SimTimeMillis: 99, IntervalMillis: 100, ClientID: 7})
	b.Seek(n)

	if !IsAccept(b) {
		t.Fatalf("IsAccept = false")
	}
	hdr, m, err := ReadAccept(b)
	if err != nil {
		t.Fatalf("ReadAccept error: %v", err)
	}
	if hdr.SenderID != ServerID {
		t.Fatalf("unexpected sender id: %d", hdr.SenderID)
	}
	if m.ClientID != 7 {
		t.Fatalf("unexpected client id: %d", m.ClientID)
	}
}

func TestRejectRoundTrip(t *testing.T) {
	b := databuf.NewSize(64)
	n := WriteReject(b, 1, RejectNoMoreConnections|RejectUnsupportedInterval)
	b.Seek(n)

	if !IsReject(b) {
		t.Fatalf("IsReject = false")
	}
	_, reason, err := ReadReject(b)
	if err != nil {
		t.Fatalf("ReadReject error: %v", err)
	}
	if reason != RejectNoMoreConnections|RejectUnsupportedInterval {
		t.Fatalf("unexpected reason: %x", reason)
	}
}

func TestStopPauseResumeRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		write func(b *databuf.Buffer) int
		is    func(b *databuf.Buffer) bool
		read  func(b *databuf.Buffer) error
	}{
		{"stop", func(b *databuf.Buffer) int { return WriteStop(b, 1, 5) }, IsStop, func(b *databuf.Buffer) error { _, err := ReadStop(b); return err }},
		{"pause", func(b *databuf.Buffer) int { return WritePause(b, 1, 5) }, IsPause, func(b *databuf.Buffer) error { _, err := ReadPause(b); return err }},
		{"resume", func(b *databuf.Buffer) int { return WriteResume(b, 1, 5) }, IsResume, func(b *databuf.Buffer) error { _, err := ReadResume(b); return err }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := databuf.NewSize(32)
			n := c.write(b)
			b.Seek(n)
			if !c.is(b) {
				t.Fatalf("%s: predicate false", c.name)
			}
			if err := c.read(b); err != nil {
				t.Fatalf("%s: read error: %v", c.name, err)
			}
		})
	}
}

func TestDataHeaderBackpatch(t *testing.T) {
	b := databuf.NewSize(64)
	pos := BeginWriteData(b, 7, 3)
	pos, _ = b.WriteInt32(pos, 123) // fake payload
	n := EndWriteData(b, pos)
	b.Seek(n)

	if !IsData(b) {
		t.Fatalf("IsData = false")
	}
	hdr, payloadPos, err := ReadDataHeader(b)
	if err != nil {
		t.Fatalf("ReadDataHeader error: %v", err)
	}
	if int(hdr.MsgLength) != n {
		t.Fatalf("msg_length = %d, want %d", hdr.MsgLength, n)
	}
	v, _, ok := b.ReadInt32(payloadPos)
	if !ok || v != 123 {
		t.Fatalf("payload round trip failed: %d, %v", v, ok)
	}
}

func TestInconsistentHeaderLengthRejected(t *testing.T) {
	b := databuf.NewSize(64)
	n := WriteAccept(b, 1, AcceptMsg{})
	b.SetInt16(2, int16(n+4)) // corrupt stored length
	b.Seek(n)

	if _, _, err := ReadAccept(b); err != ErrInconsistentHeader {
		t.Fatalf("ReadAccept error = %v, want ErrInconsistentHeader", err)
	}
}

func TestWrongMessageTypeRejected(t *testing.T) {
	b := databuf.NewSize(64)
	n := WriteStop(b, 1, 1)
	b.Seek(n)

	if _, err := ReadPause(b); err != ErrWrongLength && err != ErrWrongType {
		t.Fatalf("ReadPause on a Stop message should fail, got %v", err)
	}
}
