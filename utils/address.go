package utils

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/JFJun/go-substrate-crypto/ss58"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	SubstrateSS58Format = 42
	FrequencySS58Format = 90

	publicKeyLen = 32
	checksumLen  = 2
)

var (
	ErrInvalidAddress = errors.New("invalid ss58 address")
	ss58Prefix        = []byte("SS58PRE")
)

func checksum(data []byte) []byte {
	h := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), data...))
	return h[:checksumLen]
}

func formatBytes(format uint16) ([]byte, error) {
	switch {
	case format < 64:
		return []byte{byte(format)}, nil
	case format < 16384:
		first := byte((format&0x00fc)>>2) | 0x40
		second := byte(format>>8) | byte((format&0x0003)<<6)
		return []byte{first, second}, nil
	default:
		return nil, fmt.Errorf("ss58 format %d out of range", format)
	}
}

// EncodeAddress renders a 32 byte public key as an ss58 address.
func EncodeAddress(pub []byte, format uint16) (string, error) {
	if len(pub) != publicKeyLen {
		return "", fmt.Errorf("%w: public key length %d", ErrInvalidAddress, len(pub))
	}
	if format < 64 {
		return ss58.Encode(pub, []byte{byte(format)})
	}
	prefix, err := formatBytes(format)
	if err != nil {
		return "", err
	}
	payload := append(prefix, pub...)
	return base58.Encode(append(payload, checksum(payload)...)), nil
}

// DecodeAddress returns the public key and ss58 format of an address.
func DecodeAddress(address string) ([]byte, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if len(raw) < 1 {
		return nil, 0, ErrInvalidAddress
	}

	var format uint16
	prefixLen := 1
	if raw[0]&0x40 != 0 {
		if len(raw) < 2 {
			return nil, 0, ErrInvalidAddress
		}
		prefixLen = 2
		format = uint16(raw[0]&0x3f)<<2 | uint16(raw[1]>>6) | uint16(raw[1]&0x3f)<<8
	} else {
		format = uint16(raw[0])
	}

	if len(raw) != prefixLen+publicKeyLen+checksumLen {
		return nil, 0, fmt.Errorf("%w: length %d", ErrInvalidAddress, len(raw))
	}
	body := raw[:prefixLen+publicKeyLen]
	if !bytes.Equal(checksum(body), raw[prefixLen+publicKeyLen:]) {
		return nil, 0, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	return body[prefixLen:], format, nil
}

// PublicKey accepts an ss58 address of any format.
func PublicKey(address string) ([]byte, error) {
	pub, _, err := DecodeAddress(address)
	return pub, err
}
