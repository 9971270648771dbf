package store

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	sqlite "modernc.org/sqlite"
)

// EncodeEmbedding encodes a float32 vector into the BLOB representation
// stored in the embedding column: a little-endian sequence of IEEE 754
// float32 values with no length prefix. The dimension is derived from the
// BLOB size on decode.
func EncodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodeEmbedding decodes a BLOB produced by EncodeEmbedding.
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

var registerOnce sync.Once

// registerVectorFunctions registers vec_distance_ip with the sqlite driver.
// Registration is process-wide and must happen before connections open;
// New calls this before sql.Open.
func registerVectorFunctions() {
	registerOnce.Do(func() {
		// Duplicate registration is rejected by the driver; ignoring the error
		// keeps this safe across multiple stores in one process.
		_ = sqlite.RegisterDeterministicScalarFunction("vec_distance_ip", 2, vecDistanceIPImpl)
	})
}

// vecDistanceIPImpl computes inner-product distance between two embedding
// BLOBs. On unit vectors this equals 1 - cosine similarity, so ordering by
// it ascending ranks by similarity.
func vecDistanceIPImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("vec_distance_ip: expected 2 arguments, got %d", len(args))
	}
	a, err := asEmbedding(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asEmbedding(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("vec_distance_ip: dimension mismatch %d vs %d", len(a), len(b))
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return 1 - dot, nil
}

// asEmbedding converts a SQL argument to a float32 vector, accepting NULL.
func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return DecodeEmbedding(v)
	default:
		return nil, fmt.Errorf("unsupported argument type %T for embedding; want BLOB", arg)
	}
}
