package publisher

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
)

// GzipCompress compresses payload using gzip at best-speed, matching the
// upstream publisher's preference for low CPU cost on the publish-tick hot
// path over maximum compression ratio.
func GzipCompress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
