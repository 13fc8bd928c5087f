package ingest

import (
	"net"
	"os"
	"path/filepath"

	"github.com/Netflix-Skunkworks/spectatord/pkg/log"
)

// PrepareSocketPath removes any stale socket left at path by a previous
// process and makes sure its parent directory exists, matching the
// upstream daemon's behavior of creating the directory with the default
// umask and then clearing the umask entirely so any local user can send
// metrics over the socket.
func PrepareSocketPath(path string) {
	_ = os.Remove(path)

	if dir := filepath.Dir(path); dir != "." {
		log.Debugf("creating dir: %s", dir)
		if err := os.MkdirAll(dir, 0o777); err != nil {
			log.Warnf("unable to create dir %s: %v", dir, err)
		}
	}
	syscallUmask(0)
}

// UDSServer receives datagrams on a Unix domain datagram socket and feeds
// each one to handler, identical in protocol to UDPServer.
type UDSServer struct {
	conn    *net.UnixConn
	handler LineHandler
	path    string
	done    chan struct{}
}

// NewUDSServer binds a Unix datagram socket at path. Callers should call
// PrepareSocketPath(path) first to clear any stale socket file.
func NewUDSServer(path string, handler LineHandler) (*UDSServer, error) {
	addr := &net.UnixAddr{Name: path, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, err
	}
	return &UDSServer{conn: conn, handler: handler, path: path, done: make(chan struct{})}, nil
}

// Serve blocks, reading datagrams until Close is called.
func (s *UDSServer) Serve() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := s.conn.ReadFromUnix(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			logRecvError("local server", err)
			continue
		}
		if n == 0 {
			continue
		}
		if errMsg := s.handler(buf[:n]); errMsg != "" {
			log.Infof("local server: parse errors: %s", errMsg)
		}
	}
}

// Close stops Serve, releases the socket, and unlinks the socket file.
func (s *UDSServer) Close() error {
	close(s.done)
	err := s.conn.Close()
	_ = os.Remove(s.path)
	return err
}
