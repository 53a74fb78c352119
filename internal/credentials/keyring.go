package credentials

import (
	"context"
	"errors"

	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/zalando/go-keyring"
)

// KeyringStore keeps credentials in the operating system keyring. The
// keyring has no change notification, so other processes' logins are
// picked up by the session monitor's polling.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a store under the given keyring service name.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

// Lookup returns the value stored under key.
func (s *KeyringStore) Lookup(ctx context.Context, key string) (string, bool) {
	val, err := keyring.Get(s.service, key)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Log.Debugw("keyring lookup failed", "service", s.service, "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

// Set stores value under key.
func (s *KeyringStore) Set(ctx context.Context, key, value string) error {
	return keyring.Set(s.service, key, value)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KeyringStore) Delete(ctx context.Context, key string) error {
	if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// Watch blocks until ctx is done.
func (s *KeyringStore) Watch(ctx context.Context, onChange func(key string)) error {
	<-ctx.Done()
	return nil
}
