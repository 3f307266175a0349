package attempt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileRepository implements Repository using file-based storage. Intended for
// development and testing; production deployments use PostgresRepository.
type FileRepository struct {
	dataDir  string
	attempts []LoginAttempt
	mutex    sync.RWMutex
}

type attemptData struct {
	Attempts []LoginAttempt `json:"attempts"`
}

// NewFileRepository creates a new file-based attempt repository
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRepository{
		dataDir: dataDir,
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// Record appends a new attempt
func (r *FileRepository) Record(ctx context.Context, params RecordParams) (LoginAttempt, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	attempt := LoginAttempt{
		ID:        uuid.New(),
		AccountID: params.AccountID,
		Email:     params.Email,
		Succeeded: params.Succeeded,
		UserAgent: params.UserAgent,
		IPAddress: params.IPAddress,
		CreatedAt: time.Now().UTC(),
	}

	r.attempts = append(r.attempts, attempt)

	if err := r.save(); err != nil {
		// Rollback
		r.attempts = r.attempts[:len(r.attempts)-1]
		return LoginAttempt{}, fmt.Errorf("failed to save: %w", err)
	}

	return attempt, nil
}

// ListRecent returns the most recent attempts for an email, newest first
func (r *FileRepository) ListRecent(ctx context.Context, email string, limit int) ([]LoginAttempt, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.filterSorted(func(a LoginAttempt) bool {
		return a.Email == email
	}, limit), nil
}

// ListRecentAll returns the most recent attempts across all accounts
func (r *FileRepository) ListRecentAll(ctx context.Context, limit int) ([]LoginAttempt, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.filterSorted(func(a LoginAttempt) bool {
		return true
	}, limit), nil
}

// ListSuccessful returns all successful attempts for an account, newest first
func (r *FileRepository) ListSuccessful(ctx context.Context, accountID uuid.UUID) ([]LoginAttempt, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.filterSorted(func(a LoginAttempt) bool {
		return a.Succeeded && a.AccountID == accountID
	}, 0), nil
}

// CountFailed counts failed attempts for an email
func (r *FileRepository) CountFailed(ctx context.Context, email string) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	count := 0
	for _, a := range r.attempts {
		if !a.Succeeded && a.Email == email {
			count++
		}
	}
	return count, nil
}

// CountAll counts every recorded attempt
func (r *FileRepository) CountAll(ctx context.Context) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.attempts), nil
}

// CountAllFailed counts every failed attempt
func (r *FileRepository) CountAllFailed(ctx context.Context) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	count := 0
	for _, a := range r.attempts {
		if !a.Succeeded {
			count++
		}
	}
	return count, nil
}

// filterSorted returns matching attempts ordered by CreatedAt descending,
// truncated to limit when limit > 0. Caller must hold the read lock.
func (r *FileRepository) filterSorted(match func(LoginAttempt) bool, limit int) []LoginAttempt {
	result := make([]LoginAttempt, 0)
	for _, a := range r.attempts {
		if match(a) {
			result = append(result, a)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// load reads attempt data from file
func (r *FileRepository) load() error {
	filePath := filepath.Join(r.dataDir, "attempts.json")

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

	var stored attemptData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.attempts = stored.Attempts
	return nil
}

// save writes attempt data to file atomically
func (r *FileRepository) save() error {
	jsonData, err := json.MarshalIndent(attemptData{Attempts: r.attempts}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "attempts.json.tmp")
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "attempts.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
