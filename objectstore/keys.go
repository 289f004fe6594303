package objectstore

import (
	"fmt"
	"math/rand"
	"strings"
)

// keyDelimiter separates the namespace, kind, and name components of a
// datastore key.
const keyDelimiter = ":"

// reservedKeyChars are redis glob characters and the key delimiter;
// fragments containing them would corrupt key pattern matching.
const reservedKeyChars = keyDelimiter + `*?[]\`

// GenerateRandomKey generates a random 10-character string key.
// The generated string is a valid key fragment.
func GenerateRandomKey() string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	key := make([]byte, 10)
	for i := range key {
		key[i] = letters[rand.Intn(len(letters))]
	}
	return string(key)
}

// validateKeyFragment validates that the provided string is usable as a
// key component.
func validateKeyFragment(f string) error {
	if f == "" {
		return fmt.Errorf("objectstore: key fragment must not be empty")
	}
	if strings.ContainsAny(f, reservedKeyChars) {
		return fmt.Errorf("objectstore: key fragment '%s' must not contain any of '%s'", f, reservedKeyChars)
	}
	return nil
}

// keyPrefix returns the full key prefix for the store's objects:
// "<namespace>:<kind>:" (the namespace component is omitted when unset).
func (s *Store[T]) keyPrefix() string {
	if s.namespace == "" {
		return s.kind + keyDelimiter
	}
	return s.namespace + keyDelimiter + s.kind + keyDelimiter
}

// key builds the fully qualified datastore key for an object name.
func (s *Store[T]) key(name string) (string, error) {
	if err := validateKeyFragment(name); err != nil {
		return "", err
	}
	return s.keyPrefix() + name, nil
}

// pattern returns the glob pattern matching every key of the store's kind.
func (s *Store[T]) pattern() string {
	return s.keyPrefix() + "*"
}
