package utils

import "bytes"

var (
	bytesPrefix = []byte("<Bytes>")
	bytesSuffix = []byte("</Bytes>")
)

// WrapBytes surrounds data with <Bytes></Bytes>, the framing wallets apply
// before signing raw payloads. Already wrapped data is returned unchanged.
func WrapBytes(data []byte) []byte {
	if IsWrapped(data) {
		return data
	}
	out := make([]byte, 0, len(bytesPrefix)+len(data)+len(bytesSuffix))
	out = append(out, bytesPrefix...)
	out = append(out, data...)
	return append(out, bytesSuffix...)
}

func UnwrapBytes(data []byte) []byte {
	if !IsWrapped(data) {
		return data
	}
	return data[len(bytesPrefix) : len(data)-len(bytesSuffix)]
}

func IsWrapped(data []byte) bool {
	return len(data) >= len(bytesPrefix)+len(bytesSuffix) &&
		bytes.HasPrefix(data, bytesPrefix) &&
		bytes.HasSuffix(data, bytesSuffix)
}
