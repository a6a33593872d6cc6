/**
 * @description
 * Loader for the static JSON fixtures backing the read-only dashboard
 * endpoints. Fixtures are re-read on every request; the files are small and
 * the endpoints promise verbatim passthrough of their contents.
 */
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/merchly/dashboard-service/internal/domain"
)

// FixtureStore reads dashboard fixture files from a directory.
type FixtureStore struct {
	dir string
}

// NewFixtureStore creates a fixture store rooted at dir.
func NewFixtureStore(dir string) *FixtureStore {
	return &FixtureStore{dir: dir}
}

// TransactionList returns the typed transaction fixture for stat
// derivation.
func (s *FixtureStore) TransactionList() ([]domain.Transaction, error) {
	raw, err := s.read("transactions.json")
	if err != nil {
		return nil, err
	}
	var transactions []domain.Transaction
	if err := json.Unmarshal(raw, &transactions); err != nil {
		return nil, fmt.Errorf("failed to parse transactions fixture: %w", err)
	}
	return transactions, nil
}

// Transactions returns the raw transactions fixture for verbatim serving.
func (s *FixtureStore) Transactions() (json.RawMessage, error) {
	return s.read("transactions.json")
}

// Customers returns the raw customers fixture.
func (s *FixtureStore) Customers() (json.RawMessage, error) {
	return s.read("customers.json")
}

// PaymentVolume returns the raw payment volume fixture.
func (s *FixtureStore) PaymentVolume() (json.RawMessage, error) {
	return s.read("payment_volume.json")
}

func (s *FixtureStore) read(name string) (json.RawMessage, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", name, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("fixture %s is not valid JSON", name)
	}
	return raw, nil
}
