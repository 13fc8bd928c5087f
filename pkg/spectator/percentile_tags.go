package spectator

import "fmt"

// bucketTag renders a percentile bucket index as the tag value attached
// to each per-bucket counter, prefixed by the meter kind so that timer and
// distribution-summary bucket tags never collide ('T' vs 'D').
func bucketTag(prefix byte, index int) string {
	return fmt.Sprintf("%c%04X", prefix, index)
}
