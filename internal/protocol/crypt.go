package protocol

import (
	"fmt"
	"strings"
)

// Cipher constants inherited from the legacy client generation. The key
// schedule only ever reads the low 16 bits, so the state is masked each round.
const (
	cryptConst1 = 53761
	cryptConst2 = 32618
	cryptSeed   = 5

	// DecryptorMagic is the value announced to clients in the decryptor
	// greeting shortly after connect.
	DecryptorMagic = 34
)

// Decrypt reverses the first-field obfuscation. The input is a stream of
// two-character hex bytes; the key rotates with each ciphertext byte.
func Decrypt(data string) (string, error) {
	var out strings.Builder
	key := uint32(cryptSeed)
	for i := 0; i < len(data); i += 2 {
		end := i + 2
		if end > len(data) {
			end = len(data)
		}
		b, err := parseHexByte(data[i:end])
		if err != nil {
			return "", err
		}
		out.WriteByte(byte(b ^ (key&0xffff)>>8))
		key = ((b+key)*cryptConst1 + cryptConst2) & 0xffff
	}
	return out.String(), nil
}

// Encrypt applies the obfuscation, producing the hex form Decrypt accepts.
func Encrypt(data string) string {
	var out strings.Builder
	key := uint32(cryptSeed)
	for i := 0; i < len(data); i++ {
		val := uint32(data[i]) ^ (key&0xffff)>>8
		fmt.Fprintf(&out, "%02x", val)
		key = ((val+key)*cryptConst1 + cryptConst2) & 0xffff
	}
	return out.String()
}

func parseHexByte(s string) (uint32, error) {
	var v uint32
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d uint32
		switch {
		case c >= '0' && c <= '9':
			d = uint32(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint32(c-'A') + 10
		default:
			return 0, fmt.Errorf("invalid hex byte %q", s)
		}
		v = v<<4 | d
	}
	return v, nil
}
