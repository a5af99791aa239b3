package auth

import (
	"fmt"

	"songvault/model"
)

// CredentialStore is a read-only username lookup over a fixed credential
// table. It is injected at construction so a real identity provider can
// replace it without touching call sites. Safe for concurrent readers.
type CredentialStore struct {
	byUser map[string]model.Credential
}

// NewCredentialStore builds a store from the given records.
func NewCredentialStore(records []model.Credential) *CredentialStore {
	byUser := make(map[string]model.Credential, len(records))
	for _, rec := range records {
		byUser[rec.Username] = rec
	}
	return &CredentialStore{byUser: byUser}
}

// Lookup returns the record for an exact username match.
func (s *CredentialStore) Lookup(username string) (model.Credential, bool) {
	rec, ok := s.byUser[username]
	return rec, ok
}

// DemoCredentials returns the reference deployment's two demo users.
func DemoCredentials() ([]model.Credential, error) {
	hash, err := HashPassword("123")
	if err != nil {
		return nil, fmt.Errorf("failed to build demo credentials: %w", err)
	}

	return []model.Credential{
		{
			Username:     "spuertab1",
			PasswordHash: hash,
			Roles:        []string{model.RoleAdmin, model.RoleUser},
		},
		{
			Username:     "spuertab2",
			PasswordHash: hash,
			Roles:        []string{model.RoleUser},
		},
	}, nil
}
