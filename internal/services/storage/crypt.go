package storage

import (
	"bytes"
	"io"

	"filippo.io/age"
)

// ageHeader is the prefix of every age-encrypted file
const ageHeader = "age-encryption.org"

func sealed(data []byte) bool {
	return bytes.HasPrefix(data, []byte(ageHeader))
}

func seal(data []byte, recipient age.Recipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unseal(data []byte, identity age.Identity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
