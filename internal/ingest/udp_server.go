package ingest

import (
	"net"

	"github.com/Netflix-Skunkworks/spectatord/pkg/log"
)

// maxDatagramSize matches the upstream daemon's fixed 64KiB receive buffer;
// UDP datagrams larger than this are truncated by the kernel before they
// ever reach recvfrom, so this is an upper bound rather than a limit we
// enforce ourselves.
const maxDatagramSize = 65536

// LineHandler parses one received datagram's worth of protocol lines and
// returns an aggregated error message, or "" on full success.
type LineHandler func(data []byte) string

// UDPServer receives datagrams on a single UDP port and feeds each one to
// handler. One goroutine is dedicated to the blocking read loop; handler is
// invoked synchronously on that goroutine, matching the single-threaded
// dispatch of the daemon this was modeled on.
type UDPServer struct {
	conn    *net.UDPConn
	handler LineHandler
	name    string
	done    chan struct{}
}

// NewUDPServer binds a UDP socket on port (on both IPv4 and IPv6 unless
// ipv4Only is set) and configures its receive buffer to rcvBufSize bytes,
// logging (not failing) if the OS refuses the requested size.
func NewUDPServer(name string, port int, ipv4Only bool, rcvBufSize int, handler LineHandler) (*UDPServer, error) {
	network := "udp"
	if ipv4Only {
		network = "udp4"
	}
	addr := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP(network, addr)
	if err != nil {
		return nil, err
	}
	if err := conn.SetReadBuffer(rcvBufSize); err != nil {
		log.Warnf("%s: unable to set receive buffer size to %d: %v", name, rcvBufSize, err)
	}
	return &UDPServer{conn: conn, handler: handler, name: name, done: make(chan struct{})}, nil
}

// Serve blocks, reading datagrams until Close is called.
func (s *UDPServer) Serve() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			logRecvError(s.name, err)
			continue
		}
		if n == 0 {
			continue
		}
		if errMsg := s.handler(buf[:n]); errMsg != "" {
			log.Infof("%s: parse errors: %s", s.name, errMsg)
		}
	}
}

// Close stops Serve and releases the socket.
func (s *UDPServer) Close() error {
	close(s.done)
	return s.conn.Close()
}
