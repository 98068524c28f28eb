package checkpoint

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/argusml/argus/pkg/errors"
)

// Algorithm selects the weight blob codec
type Algorithm string

const (
	// AlgorithmNone stores the blob uncompressed
	AlgorithmNone Algorithm = "none"
	// AlgorithmZstd trades a little speed for the best ratio
	AlgorithmZstd Algorithm = "zstd"
	// AlgorithmLZ4 is the fastest option
	AlgorithmLZ4 Algorithm = "lz4"
)

func algoByte(a Algorithm) byte {
	switch a {
	case AlgorithmZstd:
		return 1
	case AlgorithmLZ4:
		return 2
	default:
		return 0
	}
}

func algoFromByte(b byte) (Algorithm, error) {
	switch b {
	case 0:
		return AlgorithmNone, nil
	case 1:
		return AlgorithmZstd, nil
	case 2:
		return AlgorithmLZ4, nil
	}
	return "", errors.Newf(errors.ErrorTypeCheckpoint, "unknown compression algorithm byte %d", b)
}

func compress(data []byte, algo Algorithm) ([]byte, error) {
	switch algo {
	case AlgorithmNone:
		return data, nil
	case AlgorithmZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
	case AlgorithmLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, errors.Newf(errors.ErrorTypeCheckpoint, "unknown compression algorithm %q", algo)
}

func decompress(data []byte, algo Algorithm) ([]byte, error) {
	switch algo {
	case AlgorithmNone:
		return data, nil
	case AlgorithmZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	case AlgorithmLZ4:
		r := lz4.NewReader(bytes.NewReader(data))
		return io.ReadAll(r)
	}
	return nil, errors.Newf(errors.ErrorTypeCheckpoint, "unknown compression algorithm %q", algo)
}
