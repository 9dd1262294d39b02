// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateUnsubscribeToken returns the opaque token embedded in newsletter
// unsubscribe links.
func GenerateUnsubscribeToken() (string, error) {
	return GenerateRandomString(32)
}

// GeneratePaymentReference returns a reference the customer quotes in the
// memo of a crypto transfer.
func GeneratePaymentReference() (string, error) {
	random, err := GenerateRandomString(12)
	if err != nil {
		return "", err
	}
	return "CRY-" + random, nil
}
