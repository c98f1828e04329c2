package store

import (
	"bytes"
	"encoding/binary"
)

// encodeFloat32Slice packs a []float32 into the little-endian byte blob
// sqlite-vec expects for a vec0 float column, matching the corpus's
// vector_store.go wire format.
func encodeFloat32Slice(vec []float32) []byte {
	buf := &bytes.Buffer{}
	buf.Grow(len(vec) * 4)
	_ = binary.Write(buf, binary.LittleEndian, vec)
	return buf.Bytes()
}

// decodeFloat32Slice is encodeFloat32Slice's inverse, used to read an
// events_vec blob back out for export.
func decodeFloat32Slice(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	_ = binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec)
	return vec
}
