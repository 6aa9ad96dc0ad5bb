package asm

import "encoding/binary"

// Serialize packs words into a little-endian byte stream, the wire format
// written by the assembler CLI and read back by the loader.
func Serialize(words []uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// Deserialize unpacks a little-endian byte stream into words. The length of
// data must be a multiple of 4.
func Deserialize(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words
}
