// Package secret persists cached usernames and passwords per host.
package secret

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// DefaultUserAccount is the account under which a host's default username
// is cached. Passwords are cached under the username itself.
const DefaultUserAccount = "__default_08723efe-242f-11e9-8143-7ff2638e4f3e"

// ServiceName returns the store namespace for host.
func ServiceName(host string) string {
	return "winrm:" + host
}

// Store abstracts a secure credentials store such as the OS keyring.
// Implementations must be safe to call from multiple goroutines.
type Store interface {
	// Get returns the value for (service, account); found is false when
	// nothing is stored.
	Get(service, account string) (value string, found bool, err error)
	Set(service, account, value string) error
}

// Keyring stores secrets in the OS keychain: macOS Keychain, the Secret
// Service on Linux, or the Windows Credential Manager.
type Keyring struct{}

// NewKeyring returns a Keyring store.
func NewKeyring() *Keyring {
	return &Keyring{}
}

// Get implements Store.
func (Keyring) Get(service, account string) (string, bool, error) {
	value, err := keyring.Get(service, account)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("secret: keyring get %s: %w", service, err)
	}
	return value, true, nil
}

// Set implements Store.
func (Keyring) Set(service, account, value string) error {
	if err := keyring.Set(service, account, value); err != nil {
		return fmt.Errorf("secret: keyring set %s: %w", service, err)
	}
	return nil
}

// Memory is an in-process Store. Nothing survives the process. The zero
// value is ready to use.
type Memory struct {
	mu     sync.RWMutex
	values map[[2]string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[[2]string]string)}
}

// Get implements Store.
func (m *Memory) Get(service, account string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[[2]string{service, account}]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(service, account, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[[2]string]string)
	}
	m.values[[2]string{service, account}] = value
	return nil
}
