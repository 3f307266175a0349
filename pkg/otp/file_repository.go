package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileRepository implements Repository using file-based storage. Intended for
// development and testing; production deployments use PostgresRepository.
type FileRepository struct {
	dataDir    string
	challenges map[string]Challenge
	mutex      sync.RWMutex
}

type challengeData struct {
	Challenges []Challenge `json:"challenges"`
}

// NewFileRepository creates a new file-based challenge repository
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRepository{
		dataDir:    dataDir,
		challenges: make(map[string]Challenge),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// Upsert stores the challenge, replacing any existing one for the scope key
func (r *FileRepository) Upsert(ctx context.Context, challenge Challenge) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	previous, hadPrevious := r.challenges[challenge.ScopeKey]
	r.challenges[challenge.ScopeKey] = challenge

	if err := r.save(); err != nil {
		if hadPrevious {
			r.challenges[challenge.ScopeKey] = previous
		} else {
			delete(r.challenges, challenge.ScopeKey)
		}
		return fmt.Errorf("failed to save: %w", err)
	}

	return nil
}

// Get returns the challenge for a scope key
func (r *FileRepository) Get(ctx context.Context, scopeKey string) (Challenge, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	challenge, exists := r.challenges[scopeKey]
	if !exists {
		return Challenge{}, ErrNoChallenge
	}
	return challenge, nil
}

// Delete removes the challenge for a scope key
func (r *FileRepository) Delete(ctx context.Context, scopeKey string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	previous, hadPrevious := r.challenges[scopeKey]
	if !hadPrevious {
		return nil
	}

	delete(r.challenges, scopeKey)

	if err := r.save(); err != nil {
		r.challenges[scopeKey] = previous
		return fmt.Errorf("failed to save: %w", err)
	}

	return nil
}

// load reads challenge data from file
func (r *FileRepository) load() error {
	filePath := filepath.Join(r.dataDir, "challenges.json")

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

	var stored challengeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.challenges = make(map[string]Challenge)
	for _, c := range stored.Challenges {
		r.challenges[c.ScopeKey] = c
	}

	return nil
}

// save writes challenge data to file atomically
func (r *FileRepository) save() error {
	stored := challengeData{Challenges: make([]Challenge, 0, len(r.challenges))}
	for _, c := range r.challenges {
		stored.Challenges = append(stored.Challenges, c)
	}

	jsonData, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "challenges.json.tmp")
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "challenges.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
