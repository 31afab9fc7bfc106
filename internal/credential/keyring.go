// Package credential keeps secrets (the API token, intake mailbox
// passwords) in the system keyring. Every key can be overridden from the
// environment, so scripts and CI run without a keyring at all.
package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "crm-console"

// APITokenKey is the keyring key of the CRM API bearer token.
const APITokenKey = "api-token"

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = keyring.ErrKeyNotFound

// open returns the keyring every operation works on. Tests swap it.
var open = openSystem

// IntakeKey returns the keyring key of an intake mailbox password.
func IntakeKey(name string) string {
	return "intake:" + name
}

// EnvVar returns the environment variable that overrides key:
// "api-token" is CRM_API_TOKEN, "intake:sales" is CRM_INTAKE_SALES.
func EnvVar(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	return "CRM_" + name
}

// APIToken returns the API token, pointing at `crm login` when none is
// stored.
func APIToken() (string, error) {
	token, err := Get(APITokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("no API token stored; run `crm login`: %w", err)
	}
	return token, err
}

// Get returns the secret stored under key. The key's environment variable
// wins over the keyring.
func Get(key string) (string, error) {
	if v := os.Getenv(EnvVar(key)); v != "" {
		return v, nil
	}

	ring, err := open()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a secret under key.
func Set(key, value string) error {
	ring, err := open()
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: serviceName + " " + key}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes the secret stored under key.
func Delete(key string) error {
	ring, err := open()
	if err != nil {
		return err
	}
	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

func openSystem() (keyring.Keyring, error) {
	cfg, err := ringConfig(os.Getenv("CRM_KEYRING_BACKEND"))
	if err != nil {
		return nil, err
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// ringConfig builds the keyring config. backend pins a single backend
// ("file" on a headless host); empty lets the platform choose. The file
// backend is encrypted with CRM_KEYRING_PASSWORD when set.
func ringConfig(backend string) (keyring.Config, error) {
	cfg := keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/crm-console/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName),
		KeychainTrustApplication: true,
	}
	if pw := os.Getenv("CRM_KEYRING_PASSWORD"); pw != "" {
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(pw)
	}

	if backend == "" {
		return cfg, nil
	}
	for _, b := range cfg.AllowedBackends {
		if string(b) == backend {
			cfg.AllowedBackends = []keyring.BackendType{b}
			return cfg, nil
		}
	}
	return cfg, fmt.Errorf("unknown keyring backend %q", backend)
}
