// Package textutil provides the UTF-8<->UTF-32 conversion utilities
// named as an external collaborator in spec.md §6. The indexing core
// only ever sees a decoded []rune buffer and UTF-8 byte slices; how
// those are produced is this package's concern, not the core's.
package textutil

import "unicode/utf8"

// Codec is the external "text decoder" collaborator: UTF-8 to UTF-32
// (as Go runes) and back.
type Codec interface {
	Decode(text []byte) []rune
	Encode(buf []rune) []byte
}

// UTF8Codec is the default Codec, backed by the standard library's
// UTF-8 support. It assumes well-formed input, per spec.md §6.
type UTF8Codec struct{}

// Decode converts UTF-8 text into a buffer of code points.
func (UTF8Codec) Decode(text []byte) []rune {
	buf := make([]rune, 0, len(text))
	for len(text) > 0 {
		r, size := utf8.DecodeRune(text)
		buf = append(buf, r)
		text = text[size:]
	}
	return buf
}

// Encode converts a buffer of code points back to UTF-8.
func (UTF8Codec) Encode(buf []rune) []byte {
	out := make([]byte, 0, len(buf)*utf8.UTFMax)
	var tmp [utf8.UTFMax]byte
	for _, r := range buf {
		n := utf8.EncodeRune(tmp[:], r)
		out = append(out, tmp[:n]...)
	}
	return out
}

// EncodeRange re-encodes buf[start:start+length] to UTF-8, the
// operation the N-gram splitter needs after each yielded window.
func EncodeRange(buf []rune, start, length int) []byte {
	return (UTF8Codec{}).Encode(buf[start : start+length])
}
