package ingest

import (
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestUDSServerReceivesDatagram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectatord.unix")
	PrepareSocketPath(path)

	received := make(chan string, 1)
	srv, err := NewUDSServer(path, func(data []byte) string {
		received <- string(data)
		return ""
	})
	if err != nil {
		t.Fatalf("NewUDSServer: %v", err)
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

	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Fatalf("DialUnix: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("g:temp:98.6")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case got := <-received:
		if got != "g:temp:98.6" {
			t.Fatalf("received %q, want g:temp:98.6", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the server to receive the datagram")
	}
}

func TestPrepareSocketPathRemovesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "spectatord.unix")
	PrepareSocketPath(path)

	srv, err := NewUDSServer(path, func(data []byte) string { return "" })
	if err != nil {
		t.Fatalf("NewUDSServer: %v", err)
	}
	srv.Close()

	// A second PrepareSocketPath + bind on the same path must succeed, proving
	// the stale socket file left behind by Close/os.Remove races was cleared.
	PrepareSocketPath(path)
	srv2, err := NewUDSServer(path, func(data []byte) string { return "" })
	if err != nil {
		t.Fatalf("NewUDSServer after re-preparing stale path: %v", err)
	}
	srv2.Close()
}
