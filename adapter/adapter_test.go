package adapter

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/NASARace/race-adapter-go/databuf"
	"github.com/NASARace/race-adapter-go/message"
	"github.com/NASARace/race-adapter-go/netutil"
)

// openTestSocket opens an unconnected client-style socket for a test to
// send raw, hand-built datagrams at local's server socket from.
func openTestSocket(host, port string) (*net.UDPConn, *net.UDPAddr, error) {
	return netutil.ClientSocket(host, port)
}

// writeTestDataMsg hand-builds a Data message with an int64 payload,
// bypassing sendData so the test can choose an arbitrary send time.
func writeTestDataMsg(buf *databuf.Buffer, sendTimeMillis int64, senderID int32, payload int64) int {
	pos := message.BeginWriteData(buf, sendTimeMillis, senderID)
	pos, _ = buf.WriteInt64(pos, payload)
	return message.EndWriteData(buf, pos)
}

func quietCallbacks() Callbacks {
	return Callbacks{
		Info:    func(string, ...any) {},
		Warning: func(string, ...any) {},
		Error:   func(string, ...any) {},
	}
}

func TestClientServerHandshakeAndDataExchange(t *testing.T) {
	var received []int32
	var mu sync.Mutex

	serverCtx := NewContext("127.0.0.1", "0", "test.schema", DataSender|DataReceiver, 20)
	serverCtx.Callbacks.Info = func(string, ...any) {}
	serverCtx.Callbacks.Warning = func(string, ...any) {}
	serverCtx.Callbacks.Error = func(format string, args ...any) { t.Logf("server error: "+format, args...) }
	serverCtx.Callbacks.CheckRequest = DefaultCheckRequest(20)
	serverCtx.Callbacks.WriteData = func(b *databuf.Buffer, pos int) int {
		pos, _ = b.WriteInt32(pos, 99)
		return pos
	}
	serverCtx.Callbacks.ReadData = func(b *databuf.Buffer, pos int) {
		v, _, ok := b.ReadInt32(pos)
		if ok {
			mu.Lock()
			received = append(received, v)
			mu.Unlock()
		}
	}

	local := initializeLocalServer(serverCtx)
	if local == nil {
		t.Fatalf("initializeLocalServer failed")
	}
	serverAddr := local.conn.LocalAddr().String()
	_, serverPort := splitHostPortForTest(t, serverAddr)

	serverDone := make(chan bool, 1)
	go func() {
		remote := waitForRequest(serverCtx, local)
		if remote == nil {
			serverDone <- false
			return
		}
		serverDone <- runConnectionThreaded(serverCtx, local, remote)
	}()

	clientCtx := NewContext("127.0.0.1", serverPort, "test.schema", DataSender|DataReceiver, 20)
	clientCtx.Callbacks.Info = func(string, ...any) {}
	clientCtx.Callbacks.Warning = func(string, ...any) {}
	clientCtx.Callbacks.Error = func(format string, args ...any) { t.Logf("client error: "+format, args...) }
	clientCtx.Callbacks.WriteData = func(b *databuf.Buffer, pos int) int {
		pos, _ = b.WriteInt32(pos, 7)
		return pos
	}
	var clientReceived []int32
	clientCtx.Callbacks.ReadData = func(b *databuf.Buffer, pos int) {
		v, _, ok := b.ReadInt32(pos)
		if ok {
			mu.Lock()
			clientReceived = append(clientReceived, v)
			mu.Unlock()
		}
	}

	clientLocal, clientRemote := initializeLocalClient(clientCtx)
	if clientLocal == nil {
		t.Fatalf("initializeLocalClient failed")
	}
	if !establishConnection(clientCtx, clientLocal, clientRemote) {
		t.Fatalf("establishConnection failed")
	}
	if clientLocal.id == 0 {
		t.Fatalf("client id was not assigned from Accept response")
	}

	time.Sleep(120 * time.Millisecond)
	clientCtx.StopLocal.Store(true)

	clientDone := make(chan bool, 1)
	go func() {
		clientDone <- runConnectionThreaded(clientCtx, clientLocal, clientRemote)
	}()

	select {
	case ok := <-clientDone:
		if !ok {
			t.Fatalf("client connection loop reported failure")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("client connection loop did not terminate")
	}

	serverCtx.StopLocal.Store(true)
	select {
	case <-serverDone:
	case <-time.After(3 * time.Second):
		t.Fatalf("server connection loop did not terminate")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) == 0 {
		t.Fatalf("server never received any data from client")
	}
	for _, v := range received {
		if v != 7 {
			t.Fatalf("server received unexpected payload: %d", v)
		}
	}
}

func splitHostPortForTest(t *testing.T, addr string) (string, string) {
	t.Helper()
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:]
		}
	}
	t.Fatalf("no port in address %q", addr)
	return "", ""
}

func TestRejectedHandshakeReturnsNilRemote(t *testing.T) {
	serverCtx := NewContext("127.0.0.1", "0", "test.schema", DataReceiver, 20)
	serverCtx.Callbacks = quietCallbacks()
	serverCtx.Callbacks.WriteRequest = serverCtx.DefaultWriteRequest
	serverCtx.Callbacks.CheckRequest = func(host, service string, reqFlags int32, schema string, simMillis *int64, intervalMillis *int32) int32 {
		return 0x1 // reject: no more connections
	}

	local := initializeLocalServer(serverCtx)
	if local == nil {
		t.Fatalf("initializeLocalServer failed")
	}
	_, port := splitHostPortForTest(t, local.conn.LocalAddr().String())

	resultCh := make(chan *remoteEndpoint, 1)
	go func() { resultCh <- waitForRequest(serverCtx, local) }()

	clientCtx := NewContext("127.0.0.1", port, "test.schema", DataSender, 20)
	clientCtx.Callbacks = quietCallbacks()
	clientCtx.Callbacks.WriteRequest = clientCtx.DefaultWriteRequest
	clientLocal, clientRemote := initializeLocalClient(clientCtx)
	if clientLocal == nil {
		t.Fatalf("initializeLocalClient failed")
	}
	if establishConnection(clientCtx, clientLocal, clientRemote) {
		t.Fatalf("establishConnection should fail on reject")
	}

	select {
	case remote := <-resultCh:
		if remote != nil {
			t.Fatalf("waitForRequest should return nil on reject")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server handshake goroutine did not finish")
	}
}

func TestOutOfOrderDataIsIgnored(t *testing.T) {
	ctx := NewContext("127.0.0.1", "0", "test.schema", DataReceiver, 20)
	ctx.Callbacks = quietCallbacks()
	var seen []int64
	ctx.Callbacks.ReadData = func(b *databuf.Buffer, pos int) {
		v, _, _ := b.ReadInt64(pos)
		seen = append(seen, v)
	}

	local := initializeLocalServer(ctx)
	if local == nil {
		t.Fatalf("initializeLocalServer failed")
	}
	defer local.conn.Close()
	_, port := splitHostPortForTest(t, local.conn.LocalAddr().String())

	sender, remoteAddr, err := openTestSocket("127.0.0.1", port)
	if err != nil {
		t.Fatalf("openTestSocket: %v", err)
	}
	defer sender.Close()

	remote := newRemoteEndpoint(remoteAddr, 1, 1000)
	remote.timeLast = 1000

	send := func(sendTime, payload int64) {
		buf := databuf.NewSize(64)
		n := writeTestDataMsg(buf, sendTime, 1, payload)
		if _, err := sender.WriteToUDP(buf.Bytes()[:n], remoteAddr); err != nil {
			t.Fatalf("WriteToUDP: %v", err)
		}
	}

	send(500, 42)  // older than remote.timeLast: must be dropped
	send(2000, 99) // newer: must be delivered

	netutil.SetReadTimeout(local.conn, time.Second)
	receiveMessage(ctx, local.conn, remote)
	receiveMessage(ctx, local.conn, remote)

	if len(seen) != 1 || seen[0] != 99 {
		t.Fatalf("ReadData calls = %v, want exactly [99]", seen)
	}
}
