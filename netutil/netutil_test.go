package netutil

import (
	"net"
	"testing"
	"time"
)

func splitAddr(t *testing.T, addr string) (string, string) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort(%q): %v", addr, err)
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return host, port
}

func TestClientServerRoundTrip(t *testing.T) {
	server, err := ServerSocket("0")
	if err != nil {
		t.Fatalf("ServerSocket: %v", err)
	}
	defer server.Close()

	host, port := splitAddr(t, server.LocalAddr().String())
	client, remote, err := ClientSocket(host, port)
	if err != nil {
		t.Fatalf("ClientSocket: %v", err)
	}
	defer client.Close()

	msg := []byte("hello")
	if _, err := client.WriteToUDP(msg, remote); err != nil {
		t.Fatalf("WriteToUDP: %v", err)
	}

	if err := SetReadTimeout(server, time.Second); err != nil {
		t.Fatalf("SetReadTimeout: %v", err)
	}
	buf := make([]byte, 16)
	n, _, err := server.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q, want hello", buf[:n])
	}
}

func TestCheckAvailableReportsFalseOnEmptySocket(t *testing.T) {
	server, err := ServerSocket("0")
	if err != nil {
		t.Fatalf("ServerSocket: %v", err)
	}
	defer server.Close()

	ok, err := CheckAvailable(server)
	if err != nil {
		t.Fatalf("CheckAvailable: %v", err)
	}
	if ok {
		t.Fatalf("CheckAvailable = true on an idle socket")
	}
}

func TestCheckAvailableDoesNotConsumeDatagram(t *testing.T) {
	server, err := ServerSocket("0")
	if err != nil {
		t.Fatalf("ServerSocket: %v", err)
	}
	defer server.Close()

	host, port := splitAddr(t, server.LocalAddr().String())
	client, remote, err := ClientSocket(host, port)
	if err != nil {
		t.Fatalf("ClientSocket: %v", err)
	}
	defer client.Close()

	if _, err := client.WriteToUDP([]byte("peek me"), remote); err != nil {
		t.Fatalf("WriteToUDP: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	ok, err := CheckAvailable(server)
	if err != nil {
		t.Fatalf("CheckAvailable: %v", err)
	}
	if !ok {
		t.Fatalf("CheckAvailable = false, want true")
	}

	if err := SetReadTimeout(server, time.Second); err != nil {
		t.Fatalf("SetReadTimeout: %v", err)
	}
	// Go through the package's own ReadFromUDP, not conn.ReadFromUDP
	// directly: on platforms with no true MSG_PEEK, CheckAvailable's
	// underlying probe read has to actually consume the datagram and
	// stash it here for replay, rather than discarding it.
	buf := make([]byte, 32)
	n, _, err := ReadFromUDP(server, buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	if string(buf[:n]) != "peek me" {
		t.Fatalf("datagram was lost by CheckAvailable, got %q", buf[:n])
	}
}
