// Package recovery manages security questions for account recovery: a
// shared catalog of questions and one hashed answer per account per
// question.
package recovery

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrQuestionNotFound is returned when no question exists for a lookup.
var ErrQuestionNotFound = errors.New("security question not found")

// ErrAnswerNotFound is returned when an account has no stored answer for a
// question.
var ErrAnswerNotFound = errors.New("security answer not found")

// Question is one entry in the shared catalog. Inactive questions stay in
// storage so existing answers keep their reference, but are not offered for
// new answers.
type Question struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Answer is one account's answer to a question. Only the bcrypt hash is
// stored.
type Answer struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"account_id"`
	QuestionID uuid.UUID `json:"question_id"`
	AnswerHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository defines storage for the question catalog and per-account
// answers.
type Repository interface {
	// CreateQuestion adds a question to the catalog.
	CreateQuestion(ctx context.Context, text string) (Question, error)

	// ListActiveQuestions returns the catalog entries offered for new answers.
	ListActiveQuestions(ctx context.Context) ([]Question, error)

	// GetQuestion returns a question by id, or ErrQuestionNotFound.
	GetQuestion(ctx context.Context, id uuid.UUID) (Question, error)

	// UpsertAnswer stores or replaces the account's answer to a question.
	UpsertAnswer(ctx context.Context, accountID, questionID uuid.UUID, answerHash string) (Answer, error)

	// GetAnswer returns the account's answer to a question, or
	// ErrAnswerNotFound.
	GetAnswer(ctx context.Context, accountID, questionID uuid.UUID) (Answer, error)

	// ListAnswers returns every answer the account has configured.
	ListAnswers(ctx context.Context, accountID uuid.UUID) ([]Answer, error)
}
