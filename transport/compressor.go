package transport

import (
	"github.com/valyala/gozstd"
)

// Compressor is the abstract sink-side codec a Connection applies to
// every outbound frame, whatever its size or event. A nil Compressor
// means frames travel uncompressed.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ZstdCompressor is the gozstd-backed Compressor. Safe for concurrent
// use; gozstd's package-level Compress/Decompress are themselves
// goroutine-safe.
type ZstdCompressor struct {
	level int
}

// NewZstdCompressor builds a Compressor at the given zstd compression
// level (gozstd's CompressLevel clamps out-of-range values itself).
func NewZstdCompressor(level int) *ZstdCompressor {
	return &ZstdCompressor{level: level}
}

func (z *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, z.level), nil
}

func (z *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return gozstd.Decompress(nil, data)
}
