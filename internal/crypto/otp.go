// Package crypto generates and compares one-time passcodes.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"math/big"
)

// OTP code bounds, inclusive.
const (
	MinCode = 100000
	MaxCode = 999999
)

// RandomCode returns a uniformly distributed code in [MinCode, MaxCode].
func RandomCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(MaxCode-MinCode+1))
	if err != nil {
		return 0, err
	}
	return MinCode + int(n.Int64()), nil
}

// CodesEqual compares two codes in constant time over their full 64-bit width.
func CodesEqual(a, b int) bool {
	var x, y [8]byte
	binary.BigEndian.PutUint64(x[:], uint64(int64(a)))
	binary.BigEndian.PutUint64(y[:], uint64(int64(b)))
	return subtle.ConstantTimeCompare(x[:], y[:]) == 1
}
