package base

import (
	"io"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
)

const (
	// readChunkSize is the amount of spare capacity reserved before every
	// read from the connection
	readChunkSize = 64 * 1024

	// writeBufferSize is the size of the buffered writer that batches
	// response frames into fewer syscalls
	writeBufferSize = 64 * 1024

	// writeQueueSize is the capacity of the per-connection outgoing frame queue
	writeQueueSize = 256
)

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var (
	metricFramesRead      = metrics.NewCounter(`rpc_frames_read_total`)
	metricFramesWritten   = metrics.NewCounter(`rpc_frames_written_total`)
	metricInvalidFrames   = metrics.NewCounter(`rpc_invalid_frames_total`)
	metricOrphanResponses = metrics.NewCounter(`rpc_orphan_responses_total`)
	metricHandlerErrors   = metrics.NewCounter(`rpc_handler_errors_total`)
	metricDuplicateIDs    = metrics.NewCounter(`rpc_duplicate_request_ids_total`)

	activeConnections int64

	_ = metrics.NewGauge(`rpc_server_active_connections`, func() float64 {
		return float64(atomic.LoadInt64(&activeConnections))
	})
)

// --------------------------------------------------------------------------
// Receive buffer
// --------------------------------------------------------------------------

// recvBuffer accumulates stream bytes between frame boundaries. The decoder
// consumes frames from the front while the tail may still hold the partial
// bytes of the next frame, so consumed bytes are tracked with an offset and
// the buffer is compacted before every read instead of reslicing on each
// frame.
type recvBuffer struct {
	buf []byte
	off int
}

// bytes returns the unconsumed portion of the buffer. The slice is only
// valid until the next call to advance or readFrom.
func (b *recvBuffer) bytes() []byte {
	return b.buf[b.off:]
}

// len returns the number of unconsumed bytes.
func (b *recvBuffer) len() int {
	return len(b.buf) - b.off
}

// advance marks n bytes at the front as consumed.
func (b *recvBuffer) advance(n int) {
	b.off += n
}

// reset drops all buffered bytes, e.g. after a reconnect.
func (b *recvBuffer) reset() {
	b.buf = b.buf[:0]
	b.off = 0
}

// readFrom compacts the buffer and performs a single read from r, appending
// whatever arrives. It returns the number of bytes read and the read error,
// mirroring io.Reader semantics.
func (b *recvBuffer) readFrom(r io.Reader) (int, error) {
	// Move the unconsumed tail to the front so the buffer never grows
	// past the size of one frame plus one read chunk
	if b.off > 0 {
		n := copy(b.buf, b.buf[b.off:])
		b.buf = b.buf[:n]
		b.off = 0
	}

	// Ensure spare capacity for the read
	if cap(b.buf)-len(b.buf) < readChunkSize {
		grown := make([]byte, len(b.buf), len(b.buf)+readChunkSize)
		copy(grown, b.buf)
		b.buf = grown
	}

	n, err := r.Read(b.buf[len(b.buf):cap(b.buf)])
	b.buf = b.buf[:len(b.buf)+n]
	return n, err
}
