// SPDX-License-Identifier: MPL-2.0

package checksum

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

var (
	// ErrBadSignature indicates the detached signature does not verify.
	ErrBadSignature = errors.New("signature verification failed")

	// ErrEmptyKeyring indicates the configured public key file held no keys.
	ErrEmptyKeyring = errors.New("keyring is empty")
)

// LoadKeyring reads an armored or binary OpenPGP public keyring.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyring %s: %w", path, err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parsing keyring %s: %w", path, err)
		}
	}

	if len(keyring) == 0 {
		return nil, ErrEmptyKeyring
	}
	return keyring, nil
}

// VerifySignature checks the detached signature at sigPath over the file at
// filePath. Armored and binary signatures are both accepted.
func VerifySignature(keyring openpgp.KeyRing, filePath, sigPath string) error {
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("reading signature: %w", err)
	}

	check := func(armored bool) error {
		f, err := os.Open(filePath)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }() // read-only file handle

		if armored {
			_, err = openpgp.CheckArmoredDetachedSignature(keyring, f, bytes.NewReader(sig), nil)
		} else {
			_, err = openpgp.CheckDetachedSignature(keyring, f, bytes.NewReader(sig), nil)
		}
		return err
	}

	armoredErr := check(true)
	if armoredErr == nil {
		return nil
	}
	if err := check(false); err != nil {
		return fmt.Errorf("%w: %w", ErrBadSignature, armoredErr)
	}
	return nil
}
