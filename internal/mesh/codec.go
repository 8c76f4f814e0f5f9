package mesh

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ContentType is the media type of encoded buffers.
const ContentType = "application/cbor"

// encMode produces canonical output so identical meshes encode to identical
// bytes.
var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// Marshal encodes v (Buffers or any struct embedding them) as CBOR.
func Marshal(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode mesh: %w", err)
	}
	return data, nil
}

// Encode encodes the buffers as CBOR.
func Encode(b Buffers) ([]byte, error) {
	return Marshal(b)
}

// Decode parses CBOR produced by Encode and validates the result.
func Decode(data []byte) (Buffers, error) {
	var b Buffers
	if err := cbor.Unmarshal(data, &b); err != nil {
		return Buffers{}, fmt.Errorf("decode mesh: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Buffers{}, err
	}
	return b, nil
}
