// Prints a fresh signing secret for rollcall. Pass it to the service as
// SECRET_KEY (or --secret-key); session QR tokens and teacher access tokens
// are both signed with it.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

const SecretKeyBytesLen = 32

func main() {
	b := make([]byte, SecretKeyBytesLen)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("SECRET_KEY=%s\n", hex.EncodeToString(b))
}
