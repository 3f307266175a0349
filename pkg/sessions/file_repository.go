package sessions

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
	sessions map[uuid.UUID]*DeviceSession
	mutex    sync.RWMutex
}

type sessionData struct {
	Sessions []*DeviceSession `json:"sessions"`
}

// NewFileRepository creates a new file-based session repository
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRepository{
		dataDir:  dataDir,
		sessions: make(map[uuid.UUID]*DeviceSession),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// Create inserts a new session
func (r *FileRepository) Create(ctx context.Context, params UpsertParams) (DeviceSession, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()
	session := DeviceSession{
		ID:           uuid.New(),
		AccountID:    params.AccountID,
		DeviceName:   params.DeviceName,
		UserAgent:    params.UserAgent,
		IPAddress:    params.IPAddress,
		CreatedAt:    now,
		LastActiveAt: now,
	}

	r.sessions[session.ID] = &session

	if err := r.save(); err != nil {
		delete(r.sessions, session.ID)
		return DeviceSession{}, fmt.Errorf("failed to save: %w", err)
	}

	return session, nil
}

// FindByAccountAndUserAgent returns the most recently active session for the pair
func (r *FileRepository) FindByAccountAndUserAgent(ctx context.Context, accountID uuid.UUID, userAgent string) (DeviceSession, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var found *DeviceSession
	for _, s := range r.sessions {
		if s.AccountID != accountID || s.UserAgent != userAgent {
			continue
		}
		if found == nil || s.LastActiveAt.After(found.LastActiveAt) {
			found = s
		}
	}

	if found == nil {
		return DeviceSession{}, ErrNotFound
	}
	return *found, nil
}

// Refresh updates a session in place
func (r *FileRepository) Refresh(ctx context.Context, id uuid.UUID, params UpsertParams) (DeviceSession, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, exists := r.sessions[id]
	if !exists || session.AccountID != params.AccountID {
		return DeviceSession{}, ErrNotFound
	}

	session.DeviceName = params.DeviceName
	session.IPAddress = params.IPAddress
	session.LastActiveAt = time.Now().UTC()

	if err := r.save(); err != nil {
		return DeviceSession{}, fmt.Errorf("failed to save: %w", err)
	}

	return *session, nil
}

// ListByAccount returns all sessions for an account, most recently active first
func (r *FileRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]DeviceSession, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]DeviceSession, 0)
	for _, s := range r.sessions {
		if s.AccountID == accountID {
			result = append(result, *s)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastActiveAt.After(result[j].LastActiveAt)
	})

	return result, nil
}

// Count returns the number of sessions for an account
func (r *FileRepository) Count(ctx context.Context, accountID uuid.UUID) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	count := 0
	for _, s := range r.sessions {
		if s.AccountID == accountID {
			count++
		}
	}
	return count, nil
}

// CountAll returns the number of sessions across all accounts
func (r *FileRepository) CountAll(ctx context.Context) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.sessions), nil
}

// Delete removes one session owned by the account
func (r *FileRepository) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, exists := r.sessions[id]
	if !exists || session.AccountID != accountID {
		return ErrNotFound
	}

	delete(r.sessions, id)

	if err := r.save(); err != nil {
		r.sessions[id] = session
		return fmt.Errorf("failed to save: %w", err)
	}

	return nil
}

// DeleteAllExcept removes every session for the account except keepID
func (r *FileRepository) DeleteAllExcept(ctx context.Context, accountID, keepID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	removed := make(map[uuid.UUID]*DeviceSession)
	for id, s := range r.sessions {
		if s.AccountID == accountID && id != keepID {
			removed[id] = s
			delete(r.sessions, id)
		}
	}

	if err := r.save(); err != nil {
		for id, s := range removed {
			r.sessions[id] = s
		}
		return fmt.Errorf("failed to save: %w", err)
	}

	return nil
}

// load reads session data from file
func (r *FileRepository) load() error {
	filePath := filepath.Join(r.dataDir, "sessions.json")

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

	var stored sessionData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.sessions = make(map[uuid.UUID]*DeviceSession)
	for _, s := range stored.Sessions {
		r.sessions[s.ID] = s
	}

	return nil
}

// save writes session data to file atomically
func (r *FileRepository) save() error {
	stored := sessionData{Sessions: make([]*DeviceSession, 0, len(r.sessions))}
	for _, s := range r.sessions {
		stored.Sessions = append(stored.Sessions, s)
	}

	jsonData, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "sessions.json.tmp")
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "sessions.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
