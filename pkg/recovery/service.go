package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrVerifyFailed is returned when a recovery answer does not check out.
// Whether the answer was absent or simply wrong is not disclosed.
var ErrVerifyFailed = errors.New("security answer verification failed")

// DefaultQuestions seeds the catalog when it is empty.
var DefaultQuestions = []string{
	"What was the name of your first pet?",
	"What is the name of the street you grew up on?",
	"What was the make of your first car?",
	"What is your mother's maiden name?",
	"What city were you born in?",
}

// Service manages the question catalog and per-account recovery answers.
type Service struct {
	repo Repository
}

// NewService creates a new recovery service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Questions returns the active catalog offered to the account.
func (s *Service) Questions(ctx context.Context) ([]Question, error) {
	questions, err := s.repo.ListActiveQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// SetAnswer stores the account's answer to an active question, replacing a
// previous answer to the same question. Answers are normalized before
// hashing so verification is case-insensitive.
func (s *Service) SetAnswer(ctx context.Context, accountID, questionID uuid.UUID, answer string) (Answer, error) {
	normalized := normalizeAnswer(answer)
	if accountID == uuid.Nil || questionID == uuid.Nil || normalized == "" {
		return Answer{}, fmt.Errorf("account, question and answer are required")
	}

	question, err := s.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return Answer{}, err
	}
	if !question.Active {
		return Answer{}, ErrQuestionNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(normalized), bcrypt.DefaultCost)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to hash answer: %w", err)
	}

	stored, err := s.repo.UpsertAnswer(ctx, accountID, questionID, string(hash))
	if err != nil {
		return Answer{}, fmt.Errorf("failed to store answer: %w", err)
	}

	slog.Info("Security answer configured", "accountID", accountID, "questionID", questionID)
	return stored, nil
}

// VerifyAnswer checks a recovery answer against the stored hash, returning
// ErrVerifyFailed on any mismatch or missing answer.
func (s *Service) VerifyAnswer(ctx context.Context, accountID, questionID uuid.UUID, answer string) error {
	stored, err := s.repo.GetAnswer(ctx, accountID, questionID)
	if err != nil {
		if errors.Is(err, ErrAnswerNotFound) {
			return ErrVerifyFailed
		}
		return fmt.Errorf("failed to load answer: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(stored.AnswerHash), []byte(normalizeAnswer(answer))) != nil {
		return ErrVerifyFailed
	}
	return nil
}

// Configured reports which questions the account has answered.
func (s *Service) Configured(ctx context.Context, accountID uuid.UUID) ([]Answer, error) {
	answers, err := s.repo.ListAnswers(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

// EnsureDefaultQuestions seeds the catalog when it is empty. Used by the
// file-backed deployment; the database deployment seeds via migration.
func (s *Service) EnsureDefaultQuestions(ctx context.Context) error {
	existing, err := s.repo.ListActiveQuestions(ctx)
	if err != nil {
		return fmt.Errorf("failed to check catalog: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, text := range DefaultQuestions {
		if _, err := s.repo.CreateQuestion(ctx, text); err != nil {
			return fmt.Errorf("failed to seed question: %w", err)
		}
	}
	slog.Info("Seeded default security questions", "count", len(DefaultQuestions))
	return nil
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
