package repomanager

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"github.com/dmitrijs2005/rxauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/rxauth/internal/server/repositories/profiles"
)

// memoryState holds copies of every stored record. Emails are indexed in
// lower case.
type memoryState struct {
	accounts  map[string]models.Account
	byEmail   map[string]string
	profiles  map[string]models.PractitionerProfile
	byAccount map[string]string
}

func newMemoryState() *memoryState {
	return &memoryState{
		accounts:  map[string]models.Account{},
		byEmail:   map[string]string{},
		profiles:  map[string]models.PractitionerProfile{},
		byAccount: map[string]string{},
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		accounts:  make(map[string]models.Account, len(s.accounts)),
		byEmail:   make(map[string]string, len(s.byEmail)),
		profiles:  make(map[string]models.PractitionerProfile, len(s.profiles)),
		byAccount: make(map[string]string, len(s.byAccount)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.byEmail {
		c.byEmail[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.byAccount {
		c.byAccount[k] = v
	}
	return c
}

// MemoryRepositoryManager keeps everything in process memory. It is meant
// for local development and tests; data is lost on restart.
type MemoryRepositoryManager struct {
	mu    sync.Mutex
	state *memoryState
}

var _ RepositoryManager = (*MemoryRepositoryManager)(nil)

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{state: newMemoryState()}
}

func (m *MemoryRepositoryManager) locked(fn func(s *memoryState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.state)
}

func (m *MemoryRepositoryManager) Accounts() accounts.Repository {
	return &memoryAccounts{with: m.locked}
}

func (m *MemoryRepositoryManager) Profiles() profiles.Repository {
	return &memoryProfiles{with: m.locked}
}

// RunAtomic holds the manager lock for the whole of fn, so atomic units are
// serialized. Writes go to a copy of the state which replaces the live one
// only if fn succeeds.
func (m *MemoryRepositoryManager) RunAtomic(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.state.clone()
	direct := func(f func(s *memoryState) error) error { return f(staged) }

	if err := fn(ctx, Repositories{
		Accounts: &memoryAccounts{with: direct},
		Profiles: &memoryProfiles{with: direct},
	}); err != nil {
		return err
	}

	m.state = staged
	return nil
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Close() error {
	return nil
}

type memoryAccounts struct {
	with func(func(s *memoryState) error) error
}

func (r *memoryAccounts) Create(ctx context.Context, acc *models.Account) error {
	return r.with(func(s *memoryState) error {
		key := strings.ToLower(acc.Email)
		if _, ok := s.byEmail[key]; ok {
			return common.ErrorAlreadyExists
		}
		if _, ok := s.accounts[acc.ID]; ok {
			return common.ErrorAlreadyExists
		}

		stored := *acc
		if acc.PasswordHash != nil {
			h := *acc.PasswordHash
			stored.PasswordHash = &h
		}
		s.accounts[acc.ID] = stored
		s.byEmail[key] = acc.ID
		return nil
	})
}

func (r *memoryAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var out *models.Account
	err := r.with(func(s *memoryState) error {
		id, ok := s.byEmail[strings.ToLower(email)]
		if !ok {
			return common.ErrorNotFound
		}
		acc := s.accounts[id]
		if acc.PasswordHash != nil {
			h := *acc.PasswordHash
			acc.PasswordHash = &h
		}
		out = &acc
		return nil
	})
	return out, err
}

type memoryProfiles struct {
	with func(func(s *memoryState) error) error
}

func (r *memoryProfiles) Create(ctx context.Context, p *models.PractitionerProfile) error {
	return r.with(func(s *memoryState) error {
		if _, ok := s.accounts[p.AccountID]; !ok {
			return fmt.Errorf("profile %s: account %s does not exist", p.ID, p.AccountID)
		}
		if _, ok := s.byAccount[p.AccountID]; ok {
			return common.ErrorAlreadyExists
		}
		s.profiles[p.ID] = *p
		s.byAccount[p.AccountID] = p.ID
		return nil
	})
}

func (r *memoryProfiles) GetByAccountID(ctx context.Context, accountID string) (*models.PractitionerProfile, error) {
	var out *models.PractitionerProfile
	err := r.with(func(s *memoryState) error {
		id, ok := s.byAccount[accountID]
		if !ok {
			return common.ErrorNotFound
		}
		p := s.profiles[id]
		out = &p
		return nil
	})
	return out, err
}
