// Package streamcipher decodes the encrypted playout locators returned by
// the metadata API into plain playback URLs.
//
// Wire format: Base64(IV || ciphertext) where IV is one AES block (16 bytes)
// and the ciphertext is AES-CBC with PKCS#7 padding. The key is the raw UTF-8
// bytes of the configured secret; there is no key derivation step.
package streamcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrDecrypt marks any failure to turn an encrypted locator into a URL:
// truncated or non-block-multiple ciphertext, invalid padding, or plaintext
// that is not UTF-8. Callers must treat the input as unplayable — a partial
// result is never returned.
var ErrDecrypt = errors.New("streamcipher: cannot decrypt locator")

// Decrypt decodes encoded and returns the plaintext playback URL.
// Deterministic and side-effect free.
func Decrypt(encoded, secret string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", ErrDecrypt, err)
	}
	if len(raw) < aes.BlockSize {
		return "", fmt.Errorf("%w: %d bytes is too short to hold an IV", ErrDecrypt, len(raw))
	}
	iv, ciphertext := raw[:aes.BlockSize], raw[aes.BlockSize:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a block multiple", ErrDecrypt, len(ciphertext))
	}

	block, err := aes.NewCipher([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	plain, err = pkcs7Unpad(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecrypt)
	}
	return string(plain), nil
}

func pkcs7Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("empty plaintext")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("bad padding length %d", n)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errors.New("inconsistent padding bytes")
		}
	}
	return b[:len(b)-n], nil
}
