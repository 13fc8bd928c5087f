package procstat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMaxBufferSizeReadsValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rmem_max")
	if err := os.WriteFile(path, []byte("33554432\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := MaxBufferSize(path); got != 33554432 {
		t.Fatalf("MaxBufferSize() = %d, want 33554432", got)
	}
}

func TestMaxBufferSizeFallsBackOnMissingFile(t *testing.T) {
	if got := MaxBufferSize(filepath.Join(t.TempDir(), "does-not-exist")); got != defaultMaxBufferSize {
		t.Fatalf("MaxBufferSize() = %d, want default %d", got, defaultMaxBufferSize)
	}
}

func TestMaxBufferSizeFallsBackOnMalformedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rmem_max")
	if err := os.WriteFile(path, []byte("not-a-number\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := MaxBufferSize(path); got != defaultMaxBufferSize {
		t.Fatalf("MaxBufferSize() = %d, want default %d", got, defaultMaxBufferSize)
	}
}

const fixtureUDP = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode ref pointer drops
   0: 00000000:04D2 00000000:0000 07 00000000:00000800 00:00000000 00000000   104        0 7856671 2 0000000000000000 42
   1: 00000000:1234 00000000:0000 07 00000000:00000000 00:00000000 00000000   104        0 7856999 2 0000000000000000 0
`

func TestReadUDPInfoFindsMatchingPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "udp")
	if err := os.WriteFile(path, []byte(fixtureUDP), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	info, ok := ReadUDPInfo(path, 1234)
	if !ok {
		t.Fatal("ReadUDPInfo() ok = false, want true")
	}
	if info.RxQueueBytes != 0x800 {
		t.Errorf("RxQueueBytes = %d, want %d", info.RxQueueBytes, 0x800)
	}
	if info.NumDropped != 42 {
		t.Errorf("NumDropped = %d, want 42", info.NumDropped)
	}
}

func TestReadUDPInfoNoMatchingPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "udp")
	if err := os.WriteFile(path, []byte(fixtureUDP), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, ok := ReadUDPInfo(path, 9999); ok {
		t.Fatal("ReadUDPInfo() ok = true, want false for an unmatched port")
	}
}

func TestReadUDPInfoMissingFile(t *testing.T) {
	if _, ok := ReadUDPInfo(filepath.Join(t.TempDir(), "does-not-exist"), 1234); ok {
		t.Fatal("ReadUDPInfo() ok = true, want false for a missing file")
	}
}
