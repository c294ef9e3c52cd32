package ras

import "bytes"

// Compression indicates how (and whether) an input stream is compressed
type Compression uint32

const (
	CompressionDisabled Compression = iota
	CompressionGZIP
	CompressionZStandard
)

var (
	magicGZIP      = []byte{0x1f, 0x8b}
	magicZStandard = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

func (c Compression) String() string {
	switch c {
	case CompressionDisabled:
		return "CompressionDisabled"
	case CompressionGZIP:
		return "CompressionGZIP"
	case CompressionZStandard:
		return "CompressionZStandard"

	default:
		return "Illegal selection"
	}
}

// DetectCompression inspects the leading bytes of a stream. At least four
// bytes are needed to recognize zstd; fewer are treated as uncompressed
// unless they carry the gzip magic number.
func DetectCompression(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, magicGZIP):
		return CompressionGZIP
	case bytes.HasPrefix(head, magicZStandard):
		return CompressionZStandard
	}

	return CompressionDisabled
}
