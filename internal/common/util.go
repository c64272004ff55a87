package common

// WipeByteArray overwrites b with zeros. Used for plaintext passwords read
// from the terminal once they have been handed to the directory.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
