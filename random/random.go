// Package random generates alphanumeric tokens. String is cheap and
// fine for things like order numbers; StringSecure draws from
// crypto/rand and is the one to use for anything secret.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/big"
	mrand "math/rand"
	"sync"
	"time"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var (
	rngMu sync.Mutex
	rng   = mrand.New(mrand.NewSource(seed()))
)

func seed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

func String(length int) string {
	b := make([]byte, length)
	rngMu.Lock()
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	rngMu.Unlock()
	return string(b)
}

func StringSecure(length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := crand.Int(crand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
