package login

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileRepository implements Repository using file-based storage. Intended for
// development and testing; production deployments use PostgresRepository.
type FileRepository struct {
	dataDir  string
	accounts map[uuid.UUID]*Account
	mutex    sync.RWMutex
}

type accountData struct {
	Accounts []*storedAccount `json:"accounts"`
}

// storedAccount carries the password hash, which Account itself never
// serializes.
type storedAccount struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	MFAEnabled   bool      `json:"mfa_enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewFileRepository creates a new file-based account repository
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRepository{
		dataDir:  dataDir,
		accounts: make(map[uuid.UUID]*Account),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// Create inserts a new account
func (r *FileRepository) Create(ctx context.Context, email, passwordHash string, mfaEnabled bool) (Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	normalized := strings.ToLower(email)
	for _, a := range r.accounts {
		if strings.ToLower(a.Email) == normalized {
			return Account{}, fmt.Errorf("account already exists: %s", email)
		}
	}

	account := Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		MFAEnabled:   mfaEnabled,
		CreatedAt:    time.Now().UTC(),
	}

	r.accounts[account.ID] = &account

	if err := r.save(); err != nil {
		delete(r.accounts, account.ID)
		return Account{}, fmt.Errorf("failed to save: %w", err)
	}

	return account, nil
}

// FindByEmail returns the account for an email
func (r *FileRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	normalized := strings.ToLower(email)
	for _, a := range r.accounts {
		if strings.ToLower(a.Email) == normalized {
			return *a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

// GetByID returns the account by id
func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return Account{}, ErrAccountNotFound
	}
	return *account, nil
}

// SetMFAEnabled toggles the second-factor requirement
func (r *FileRepository) SetMFAEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	account, exists := r.accounts[id]
	if !exists {
		return ErrAccountNotFound
	}

	previous := account.MFAEnabled
	account.MFAEnabled = enabled

	if err := r.save(); err != nil {
		account.MFAEnabled = previous
		return fmt.Errorf("failed to save: %w", err)
	}

	return nil
}

// load reads account data from file
func (r *FileRepository) load() error {
	filePath := filepath.Join(r.dataDir, "accounts.json")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var stored accountData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.accounts = make(map[uuid.UUID]*Account)
	for _, sa := range stored.Accounts {
		r.accounts[sa.ID] = &Account{
			ID:           sa.ID,
			Email:        sa.Email,
			PasswordHash: sa.PasswordHash,
			MFAEnabled:   sa.MFAEnabled,
			CreatedAt:    sa.CreatedAt,
		}
	}

	return nil
}

// save writes account data to file atomically
func (r *FileRepository) save() error {
	stored := accountData{Accounts: make([]*storedAccount, 0, len(r.accounts))}
	for _, a := range r.accounts {
		stored.Accounts = append(stored.Accounts, &storedAccount{
			ID:           a.ID,
			Email:        a.Email,
			PasswordHash: a.PasswordHash,
			MFAEnabled:   a.MFAEnabled,
			CreatedAt:    a.CreatedAt,
		})
	}

	jsonData, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "accounts.json.tmp")
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "accounts.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
