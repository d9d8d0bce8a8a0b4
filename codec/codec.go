// Package codec frames asset payloads.
//
// Stored blobs are either raw bytes or a single zstd or lz4 frame. Decode
// detects the frame by its magic number, so readers never need to know how a
// blob was written.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies a frame format.
type Compression uint8

const (
	// CompressionNone stores the payload as-is.
	CompressionNone Compression = iota
	// CompressionLZ4 is an lz4 frame (fast, good for hot assets).
	CompressionLZ4
	// CompressionZSTD is a zstd frame (better ratio, good for cold assets).
	CompressionZSTD
)

const (
	zstdMagic uint32 = 0xFD2FB528
	lz4Magic  uint32 = 0x184D2204
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none", "raw":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// ZSTD encoder/decoder pools
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Detect returns the frame format of data.
func Detect(data []byte) Compression {
	if len(data) < 4 {
		return CompressionNone
	}
	switch binary.LittleEndian.Uint32(data) {
	case zstdMagic:
		return CompressionZSTD
	case lz4Magic:
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Encode frames data with the given compression.
func Encode(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

// Decode returns the payload of a framed blob.
// Raw blobs are returned unchanged.
func Decode(data []byte) ([]byte, error) {
	switch Detect(data) {
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decode: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}
