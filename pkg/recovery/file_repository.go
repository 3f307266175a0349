package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileRepository implements Repository using file-based storage. Intended for
// development and testing; production deployments use PostgresRepository.
type FileRepository struct {
	dataDir   string
	questions map[uuid.UUID]*Question
	answers   map[uuid.UUID]*Answer
	mutex     sync.RWMutex
}

type recoveryData struct {
	Questions []*Question     `json:"questions"`
	Answers   []*storedAnswer `json:"answers"`
}

// storedAnswer carries the answer hash, which Answer itself never
// serializes.
type storedAnswer struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"account_id"`
	QuestionID uuid.UUID `json:"question_id"`
	AnswerHash string    `json:"answer_hash"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewFileRepository creates a new file-based recovery repository
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRepository{
		dataDir:   dataDir,
		questions: make(map[uuid.UUID]*Question),
		answers:   make(map[uuid.UUID]*Answer),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// CreateQuestion adds a question to the catalog
func (r *FileRepository) CreateQuestion(ctx context.Context, text string) (Question, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	question := Question{
		ID:        uuid.New(),
		Question:  text,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	r.questions[question.ID] = &question

	if err := r.save(); err != nil {
		delete(r.questions, question.ID)
		return Question{}, fmt.Errorf("failed to save: %w", err)
	}
	return question, nil
}

// ListActiveQuestions returns the active catalog entries
func (r *FileRepository) ListActiveQuestions(ctx context.Context) ([]Question, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	active := make([]Question, 0, len(r.questions))
	for _, q := range r.questions {
		if q.Active {
			active = append(active, *q)
		}
	}
	return active, nil
}

// GetQuestion returns a question by id
func (r *FileRepository) GetQuestion(ctx context.Context, id uuid.UUID) (Question, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	question, exists := r.questions[id]
	if !exists {
		return Question{}, ErrQuestionNotFound
	}
	return *question, nil
}

// UpsertAnswer stores or replaces the account's answer to a question
func (r *FileRepository) UpsertAnswer(ctx context.Context, accountID, questionID uuid.UUID, answerHash string) (Answer, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()
	for _, a := range r.answers {
		if a.AccountID == accountID && a.QuestionID == questionID {
			previousHash, previousUpdated := a.AnswerHash, a.UpdatedAt
			a.AnswerHash = answerHash
			a.UpdatedAt = now

			if err := r.save(); err != nil {
				a.AnswerHash, a.UpdatedAt = previousHash, previousUpdated
				return Answer{}, fmt.Errorf("failed to save: %w", err)
			}
			return *a, nil
		}
	}

	answer := Answer{
		ID:         uuid.New(),
		AccountID:  accountID,
		QuestionID: questionID,
		AnswerHash: answerHash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.answers[answer.ID] = &answer

	if err := r.save(); err != nil {
		delete(r.answers, answer.ID)
		return Answer{}, fmt.Errorf("failed to save: %w", err)
	}
	return answer, nil
}

// GetAnswer returns the account's answer to a question
func (r *FileRepository) GetAnswer(ctx context.Context, accountID, questionID uuid.UUID) (Answer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, a := range r.answers {
		if a.AccountID == accountID && a.QuestionID == questionID {
			return *a, nil
		}
	}
	return Answer{}, ErrAnswerNotFound
}

// ListAnswers returns every answer the account has configured
func (r *FileRepository) ListAnswers(ctx context.Context, accountID uuid.UUID) ([]Answer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	answers := make([]Answer, 0)
	for _, a := range r.answers {
		if a.AccountID == accountID {
			answers = append(answers, *a)
		}
	}
	return answers, nil
}

// load reads recovery data from file
func (r *FileRepository) load() error {
	filePath := filepath.Join(r.dataDir, "recovery.json")

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

	var stored recoveryData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.questions = make(map[uuid.UUID]*Question)
	for _, q := range stored.Questions {
		r.questions[q.ID] = q
	}
	r.answers = make(map[uuid.UUID]*Answer)
	for _, sa := range stored.Answers {
		r.answers[sa.ID] = &Answer{
			ID:         sa.ID,
			AccountID:  sa.AccountID,
			QuestionID: sa.QuestionID,
			AnswerHash: sa.AnswerHash,
			CreatedAt:  sa.CreatedAt,
			UpdatedAt:  sa.UpdatedAt,
		}
	}

	return nil
}

// save writes recovery data to file atomically
func (r *FileRepository) save() error {
	stored := recoveryData{
		Questions: make([]*Question, 0, len(r.questions)),
		Answers:   make([]*storedAnswer, 0, len(r.answers)),
	}
	for _, q := range r.questions {
		stored.Questions = append(stored.Questions, q)
	}
	for _, a := range r.answers {
		stored.Answers = append(stored.Answers, &storedAnswer{
			ID:         a.ID,
			AccountID:  a.AccountID,
			QuestionID: a.QuestionID,
			AnswerHash: a.AnswerHash,
			CreatedAt:  a.CreatedAt,
			UpdatedAt:  a.UpdatedAt,
		})
	}

	jsonData, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "recovery.json.tmp")
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "recovery.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
