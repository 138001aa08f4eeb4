package deflate

import "github.com/go-raster/raster/internal/errkind"

// InflateZlib decodes a zlib-wrapped (RFC 1950) DEFLATE stream: a 2-byte
// header (CMF/FLG), the DEFLATE payload, and a 4-byte Adler-32 trailer.
//
// Only compression method 8 (DEFLATE) is accepted; CINFO/FCHECK/FLEVEL are
// not validated and FDICT is assumed to be 0. The Adler-32 trailer is not
// verified — ValidateAdler32 does that separately for callers that want it.
func InflateZlib(compressed []byte) ([]byte, error) {
	if len(compressed) < 6 {
		return nil, errkind.New(errkind.Corrupted, "zlib: stream shorter than header+trailer")
	}

	cmf := compressed[0]
	method := cmf & 0x0f
	if method != 8 {
		return nil, errkind.Newf(errkind.UnsupportedFeature, "zlib: unsupported compression method %d", method)
	}

	flg := compressed[1]
	fdict := (flg >> 5) & 1
	payload := compressed[2 : len(compressed)-4]
	if fdict != 0 {
		// FDICT would insert a 4-byte preset-dictionary ID before the
		// DEFLATE payload; this core does not support preset dictionaries.
		return nil, errkind.New(errkind.UnsupportedFeature, "zlib: FDICT (preset dictionary) is not supported")
	}

	return Inflate(payload)
}

// Adler32 computes the RFC 1950 Adler-32 checksum of data.
func Adler32(data []byte) uint32 {
	const modAdler = 65521
	a, b := uint32(1), uint32(0)
	for _, c := range data {
		a = (a + uint32(c)) % modAdler
		b = (b + a) % modAdler
	}
	return (b << 16) | a
}

// ValidateAdler32 reports whether the trailing 4 bytes of a zlib stream
// match the Adler-32 checksum of decoded. §4.4/§9 note this as optional:
// callers that want corruption detection beyond a successful inflate can
// call it explicitly.
func ValidateAdler32(compressed []byte, decoded []byte) bool {
	if len(compressed) < 4 {
		return false
	}
	trailer := compressed[len(compressed)-4:]
	want := uint32(trailer[0])<<24 | uint32(trailer[1])<<16 | uint32(trailer[2])<<8 | uint32(trailer[3])
	return Adler32(decoded) == want
}
