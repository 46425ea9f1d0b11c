package world

import "fmt"

// WalletColor derives a stable display color from a public key. The hash is
// the classic `h = (h << 5) - h + c` string hash with int32 wraparound, so
// colors match what older clients computed locally.
func WalletColor(pubkey string) string {
	var hash int32
	for _, c := range []byte(pubkey) {
		hash = (hash << 5) - hash + int32(c)
	}
	h := int64(hash)
	if h < 0 {
		h = -h
	}
	return fmt.Sprintf("hsl(%d, 70%%, 60%%)", h%360)
}
