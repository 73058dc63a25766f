package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "peopledesk"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/peopledesk/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("peopledesk-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// tokenKey namespaces the stored bearer token by user id.
func tokenKey(userID string) string {
	return "token:" + userID
}

// GetToken retrieves the bearer token for a user from the system keyring.
func GetToken(userID string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(tokenKey(userID))
	if err != nil {
		return "", fmt.Errorf("getting token for user %q: %w", userID, err)
	}

	return string(item.Data), nil
}

// SetToken stores the bearer token for a user in the system keyring.
func SetToken(userID string, token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  tokenKey(userID),
		Data: []byte(token),
	})
	if err != nil {
		return fmt.Errorf("setting token for user %q: %w", userID, err)
	}

	return nil
}

// DeleteToken removes the bearer token for a user from the system keyring.
func DeleteToken(userID string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(tokenKey(userID))
	if err != nil {
		return fmt.Errorf("deleting token for user %q: %w", userID, err)
	}

	return nil
}
