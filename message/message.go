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

// Package message encodes and decodes the seven RACE adapter wire message
// types on top of databuf.Buffer.
package message

import (
	"errors"

	"github.com/NASARace/race-adapter-go/databuf"
)

// Message type identifiers.
const (
	Request = int16(1)
	Accept  = int16(2)
	Reject  = int16(3)
	Data    = int16(4)
	Stop    = int16(5)
	Pause   = int16(6)
	Resume  = int16(7)
)

// Sender id conventions.
const (
	ServerID = int32(0)
	NoID     = int32(-1)
)

// Reject reasons, a bitset so a single response can cite more than one.
const (
	RejectAccepted            = 0x0
	RejectNoMoreConnections   = 0x1
	RejectUnknownData         = 0x2
	RejectUnsupportedInterval = 0x4
)

// HeaderLen is the size in bytes of the fixed message header.
const HeaderLen = 16

// MaxMsgLen is the largest a single datagram (header + payload) may be,
// chosen to stay clear of IP fragmentation on common MTUs.
const MaxMsgLen = 2048

// AcceptLen and RejectLen are the fixed total lengths of those two message
// types; everything else with a variable payload uses noFixedLen.
const (
	AcceptLen    = HeaderLen + 20
	RejectLen    = HeaderLen + 4
	stopLen      = HeaderLen
	pauseLen     = HeaderLen
	resumeLen    = HeaderLen
	noFixedLen   = 0
)

var (
	// ErrWrongType is returned when a header's message type does not match
	// what the caller expected.
	ErrWrongType = errors.New("message: wrong message type")
	// ErrWrongLength is returned when a fixed-length message's received
	// size does not match its expected size.
	ErrWrongLength = errors.New("message: wrong message length")
	// ErrInconsistentHeader is returned when the msg_length recorded in
	// the header does not match the number of bytes actually received.
	ErrInconsistentHeader = errors.New("message: inconsistent header (message length does not match received bytes)")
)

func isMsg(b *databuf.Buffer, expectID int16, expectLen int) bool {
	readLen := b.Pos()
	if readLen <= 0 {
		return false
	}
	if expectLen != noFixedLen && readLen != expectLen {
		return false
	}
	id, ok := b.PeekInt16(0)
	return ok && id == expectID
}

func writeHeader(b *databuf.Buffer, msgID int16, msgLen int16, sender int32, sendTimeMillis int64) int {
	b.Reset()
	pos, _ := b.WriteInt16(0, msgID)
	pos, _ = b.WriteInt16(pos, msgLen)
	pos, _ = b.WriteInt32(pos, sender)
	pos, _ = b.WriteInt64(pos, sendTimeMillis)
	return pos
}

func setMsgLen(b *databuf.Buffer, msgLen int16) {
	b.SetInt16(2, msgLen)
}

// Header is the 16-byte envelope common to every message.
type Header struct {
	MsgType        int16
	MsgLength      int16
	SenderID       int32
	SendTimeMillis int64
}

func readHeader(b *databuf.Buffer, id int16, checkLen int) (Header, int, error) {
	readLen := b.Pos()
	if checkLen != noFixedLen && readLen != checkLen {
		return Header{}, 0, ErrWrongLength
	}
	msgID, pos, ok := b.ReadInt16(0)
	if !ok || msgID != id {
		return Header{}, 0, ErrWrongType
	}
	msgLen, pos, ok := b.ReadInt16(pos)
	if !ok {
		return Header{}, 0, ErrWrongLength
	}
	if int(msgLen) != readLen {
		return Header{}, 0, ErrInconsistentHeader
	}
	sender, pos, ok := b.ReadInt32(pos)
	if !ok {
		return Header{}, 0, ErrWrongLength
	}
	sendTime, pos, ok := b.ReadInt64(pos)
	if !ok {
		return Header{}, 0, ErrWrongLength
	}
	return Header{MsgType: msgID, MsgLength: msgLen, SenderID: sender, SendTimeMillis: sendTime}, pos, nil
}

// IsRequest reports whether b holds a well-formed Request message.
func IsRequest(b *databuf.Buffer) bool { return isMsg(b, Request, noFixedLen) }

// IsAccept reports whether b holds a well-formed Accept message.
func IsAccept(b *databuf.Buffer) bool { return isMsg(b, Accept, AcceptLen) }

// IsReject reports whether b holds a well-formed Reject message.
func IsReject(b *databuf.Buffer) bool { return isMsg(b, Reject, RejectLen) }

// IsStop reports whether b holds a well-formed Stop message.
func IsStop(b *databuf.Buffer) bool { return isMsg(b, Stop, stopLen) }

// IsPause reports whether b holds a well-formed Pause message.
func IsPause(b *databuf.Buffer) bool { return isMsg(b, Pause, pauseLen) }

// IsResume reports whether b holds a well-formed Resume message.
func IsResume(b *databuf.Buffer) bool { return isMsg(b, Resume, resumeLen) }

// IsData reports whether b holds a Data message header (payload not
// validated here, since its shape is application-defined).
func IsData(b *databuf.Buffer) bool { return isMsg(b, Data, noFixedLen) }

// RequestMsg is the client-to-server handshake initiator.
type RequestMsg struct {
	Flags           int32
	Schema          string
	SimTimeMillis   int64
	IntervalMillis  int32
}

// WriteRequest composes a Request message and returns the written length.
func WriteRequest(b *databuf.Buffer, sendTimeMillis int64, m RequestMsg) int {
	pos := writeHeader(b, Request, noFixedLen, NoID, sendTimeMillis)
	pos, _ = b.WriteInt32(pos, m.Flags)
	pos, _ = b.WriteString(pos, m.Schema)
	pos, _ = b.WriteInt64(pos, m.SimTimeMillis)
	pos, _ = b.WriteInt32(pos, m.IntervalMillis)
	setMsgLen(b, int16(pos))
	return pos
}

// ReadRequest parses a Request message previously validated with IsRequest.
func ReadRequest(b *databuf.Buffer) (Header, RequestMsg, error) {
	hdr, pos, err := readHeader(b, Request, noFixedLen)
	if err != nil {
		return Header{}, RequestMsg{}, err
	}
	var m RequestMsg
	var ok bool
	var flags, interval int32
	flags, pos, ok = b.ReadInt32(pos)
	if !ok {
		return Header{}, RequestMsg{}, ErrWrongLength
	}
	schema, pos, ok := b.ReadString(pos)
	if !ok {
		return Header{}, RequestMsg{}, ErrWrongLength
	}
	simMillis, pos, ok := b.ReadInt64(pos)
	if !ok {
		return Header{}, RequestMsg{}, ErrWrongLength
	}
	interval, pos, ok = b.ReadInt32(pos)
	if !ok {
		return Header{}, RequestMsg{}, ErrWrongLength
	}
	_ = pos
	m.Flags = flags
	m.Schema = schema
	m.SimTimeMillis = simMillis
	m.IntervalMillis = interval
	return hdr, m, nil
}

// AcceptMsg is the server's positive handshake response.
type AcceptMsg struct {
	Flags          int32
	SimTimeMillis  int64
	IntervalMillis int32
	ClientID       int32
}

// WriteAccept composes an Accept message and returns its length.
func WriteAccept(b *databuf.Buffer, sendTimeMillis int64, m AcceptMsg) int {
	pos := writeHeader(b, Accept, AcceptLen, ServerID, sendTimeMillis)
	pos, _ = b.WriteInt32(pos, m.Flags)
	pos, _ = b.WriteInt64(pos, m.SimTimeMillis)
	pos, _ = b.WriteInt32(pos, m.IntervalMillis)
	pos, _ = b.WriteInt32(pos, m.ClientID)
	return pos
}

// ReadAccept parses an Accept message previously validated with IsAccept.
func ReadAccept(b *databuf.Buffer) (Header, AcceptMsg, error) {
	hdr, pos, err := readHeader(b, Accept, AcceptLen)
	if err != nil {
		return Header{}, AcceptMsg{}, err
	}
	var m AcceptMsg
	var ok bool
	m.Flags, pos, ok = b.ReadInt32(pos)
	if !ok {
		return Header{}, AcceptMsg{}, ErrWrongLength
	}
	m.SimTimeMillis, pos, ok = b.ReadInt64(pos)
	if !ok {
		return Header{}, AcceptMsg{}, ErrWrongLength
	}
	m.IntervalMillis, pos, ok = b.ReadInt32(pos)
	if !ok {
		return Header{}, AcceptMsg{}, ErrWrongLength
	}
	m.ClientID, pos, ok = b.ReadInt32(pos)
	if !ok {
		return Header{}, AcceptMsg{}, ErrWrongLength
	}
	_ = pos
	return hdr, m, nil
}

// WriteReject composes a Reject message carrying a reason bitset.
func WriteReject(b *databuf.Buffer, sendTimeMillis int64, reason int32) int {
	pos := writeHeader(b, Reject, RejectLen, ServerID, sendTimeMillis)
	pos, _ = b.WriteInt32(pos, reason)
	return pos
}

// ReadReject parses a Reject message previously validated with IsReject.
func ReadReject(b *databuf.Buffer) (Header, int32, error) {
	hdr, pos, err := readHeader(b, Reject, RejectLen)
	if err != nil {
		return Header{}, 0, err
	}
	reason, _, ok := b.ReadInt32(pos)
	if !ok {
		return Header{}, 0, ErrWrongLength
	}
	return hdr, reason, nil
}

// WriteStop composes a Stop (protocol terminator) message.
func WriteStop(b *databuf.Buffer, sendTimeMillis int64, senderID int32) int {
	return writeHeader(b, Stop, stopLen, senderID, sendTimeMillis)
}

// ReadStop parses a Stop message previously validated with IsStop.
func ReadStop(b *databuf.Buffer) (Header, error) {
	hdr, _, err := readHeader(b, Stop, stopLen)
	return hdr, err
}

// WritePause composes a Pause message.
func WritePause(b *databuf.Buffer, sendTimeMillis int64, senderID int32) int {
	return writeHeader(b, Pause, pauseLen, senderID, sendTimeMillis)
}

// ReadPause parses a Pause message previously validated with IsPause.
func ReadPause(b *databuf.Buffer) (Header, error) {
	hdr, _, err := readHeader(b, Pause, pauseLen)
	return hdr, err
}

// WriteResume composes a Resume message.
func WriteResume(b *databuf.Buffer, sendTimeMillis int64, senderID int32) int {
	return writeHeader(b, Resume, resumeLen, senderID, sendTimeMillis)
}

// ReadResume parses a Resume message previously validated with IsResume.
func ReadResume(b *databuf.Buffer) (Header, error) {
	hdr, _, err := readHeader(b, Resume, resumeLen)
	return hdr, err
}

// BeginWriteData writes just the Data header; the caller's payload encoder
// appends the application-specific body, and EndWriteData back-patches the
// final message length once the payload is complete.
func BeginWriteData(b *databuf.Buffer, sendTimeMillis int64, senderID int32) int {
	return writeHeader(b, Data, noFixedLen, senderID, sendTimeMillis)
}

// EndWriteData back-patches msg_length now that the variable-length payload
// has been fully composed up to pos.
func EndWriteData(b *databuf.Buffer, pos int) int {
	if pos > 0 {
		setMsgLen(b, int16(pos))
	}
	return pos
}

// ReadDataHeader parses just the Data message's header; the caller's
// payload decoder is responsible for the remaining application-specific
// bytes.
func ReadDataHeader(b *databuf.Buffer) (Header, int, error) {
	return readHeader(b, Data, noFixedLen)
}
