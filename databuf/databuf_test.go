package databuf

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	b := NewSize(64)

	pos, ok := b.WriteInt16(0, 42)
	if !ok || pos != 2 {
		t.Fatalf("WriteInt16 = %d, %v", pos, ok)
	}
	pos, ok = b.WriteInt32(pos, -7)
	if !ok || pos != 6 {
		t.Fatalf("WriteInt32 = %d, %v", pos, ok)
	}
	pos, ok = b.WriteInt64(pos, 1234567890123)
	if !ok || pos != 14 {
		t.Fatalf("WriteInt64 = %d, %v", pos, ok)
	}
	pos, ok = b.WriteFloat64(pos, 3.5)
	if !ok || pos != 22 {
		t.Fatalf("WriteFloat64 = %d, %v", pos, ok)
	}
	pos, ok = b.WriteString(pos, "hello")
	if !ok || pos != 29 {
		t.Fatalf("WriteString = %d, %v", pos, ok)
	}

	i16, pos, ok := b.ReadInt16(0)
	if !ok || i16 != 42 || pos != 2 {
		t.Fatalf("ReadInt16 = %d, %d, %v", i16, pos, ok)
	}
	i32, pos, ok := b.ReadInt32(pos)
	if !ok || i32 != -7 || pos != 6 {
		t.Fatalf("ReadInt32 = %d, %d, %v", i32, pos, ok)
	}
	i64, pos, ok := b.ReadInt64(pos)
	if !ok || i64 != 1234567890123 || pos != 14 {
		t.Fatalf("ReadInt64 = %d, %d, %v", i64, pos, ok)
	}
	f64, pos, ok := b.ReadFloat64(pos)
	if !ok || f64 != 3.5 || pos != 22 {
		t.Fatalf("ReadFloat64 = %v, %d, %v", f64, pos, ok)
	}
	s, pos, ok := b.ReadString(pos)
	if !ok || s != "hello" || pos != 29 {
		t.Fatalf("ReadString = %q, %d, %v", s, pos, ok)
	}
}

func TestWriteByteUsesSuppliedPos(t *testing.T) {
	b := NewSize(4)

	if next, ok := b.WriteByte(2, 0xAB); !ok || next != 3 {
		t.Fatalf("WriteByte(2, ..) = %d, %v", next, ok)
	}
	if b.data[2] != 0xAB {
		t.Fatalf("byte not written at supplied pos: %x", b.data[2])
	}
	if b.data[0] != 0 || b.data[1] != 0 {
		t.Fatalf("WriteByte touched unrelated bytes: %v", b.data)
	}
}

func TestBoundsFailuresLeavePosUnchanged(t *testing.T) {
	b := NewSize(4)

	if pos, ok := b.WriteInt64(0, 1); ok || pos != 0 {
		t.Fatalf("WriteInt64 should fail on undersized buffer, got pos=%d ok=%v", pos, ok)
	}
	if _, pos, ok := b.ReadInt32(1); ok || pos != 1 {
		t.Fatalf("ReadInt32 should fail past capacity, got pos=%d ok=%v", pos, ok)
	}
	b.SetInt16(0, 100) // garbage length prefix: 100 bytes claimed, 2 available
	if _, pos, ok := b.ReadString(0); ok || pos != 0 {
		t.Fatalf("ReadString should fail on garbage length prefix pointing past buffer, got pos=%d ok=%v", pos, ok)
	}
}

func TestReadStringIntoTruncates(t *testing.T) {
	b := NewSize(32)
	pos, ok := b.WriteString(0, "hello world")
	if !ok {
		t.Fatalf("WriteString failed")
	}

	dst := make([]byte, 5)
	n, next, ok := b.ReadStringInto(0, dst)
	if !ok || n != 5 || string(dst) != "hello" {
		t.Fatalf("ReadStringInto = %d, %q, %v", n, dst, ok)
	}
	if next != pos {
		t.Fatalf("ReadStringInto next pos = %d, want %d", next, pos)
	}
}

func TestSetInt16PatchesWithoutMovingCursor(t *testing.T) {
	b := NewSize(8)
	b.Seek(4)

	if !b.SetInt16(0, 99) {
		t.Fatalf("SetInt16 failed")
	}
	if b.Pos() != 4 {
		t.Fatalf("SetInt16 must not move the cursor, got pos=%d", b.Pos())
	}
	v, ok := b.PeekInt16(0)
	if !ok || v != 99 {
		t.Fatalf("patched value = %d, %v", v, ok)
	}
}

func TestNegativeLengthPrefixRejected(t *testing.T) {
	b := NewSize(8)
	b.SetInt16(0, -1)

	if _, _, ok := b.ReadString(0); ok {
		t.Fatalf("ReadString must reject a negative length prefix")
	}
}
