package common

// WipeByteArray overwrites the contents of b with zeros. Used to drop
// plaintext password bytes once they have been hashed or verified.
//
// A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
