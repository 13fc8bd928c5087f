package ingest

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"
)

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	conn.Close()
	return port
}

func TestUDPServerReceivesDatagram(t *testing.T) {
	port := freeUDPPort(t)

	received := make(chan string, 1)
	srv, err := NewUDPServer("test-udp", port, true, 1024*1024, func(data []byte) string {
		received <- string(data)
		return ""
	})
	if err != nil {
		t.Fatalf("NewUDPServer: %v", err)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		srv.Serve()
	}()
	defer func() {
		srv.Close()
		wg.Wait()
	}()

	conn, err := net.Dial("udp4", "127.0.0.1:"+strconv.Itoa(port))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("c:requests:1")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case got := <-received:
		if got != "c:requests:1" {
			t.Fatalf("received %q, want c:requests:1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the server to receive the datagram")
	}
}

func TestUDPServerCloseStopsServe(t *testing.T) {
	port := freeUDPPort(t)

	srv, err := NewUDPServer("test-udp", port, true, 1024*1024, func(data []byte) string { return "" })
	if err != nil {
		t.Fatalf("NewUDPServer: %v", err)
	}

	done := make(chan struct{})
	go func() {
		srv.Serve()
		close(done)
	}()

	if err := srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}
