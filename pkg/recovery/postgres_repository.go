package recovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL recovery repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

// CreateQuestion adds a question to the catalog
func (r *PostgresRepository) CreateQuestion(ctx context.Context, text string) (Question, error) {
	query := `
		INSERT INTO security_questions (question)
		VALUES ($1)
		RETURNING id, question, active, created_at
	`

	question, err := scanQuestion(r.pool.QueryRow(ctx, query, text))
	if err != nil {
		return Question{}, fmt.Errorf("failed to create question: %w", err)
	}
	return question, nil
}

// ListActiveQuestions returns the active catalog entries
func (r *PostgresRepository) ListActiveQuestions(ctx context.Context) ([]Question, error) {
	query := `
		SELECT id, question, active, created_at
		FROM security_questions
		WHERE active
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := make([]Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

// GetQuestion returns a question by id
func (r *PostgresRepository) GetQuestion(ctx context.Context, id uuid.UUID) (Question, error) {
	query := `
		SELECT id, question, active, created_at
		FROM security_questions
		WHERE id = $1
	`

	question, err := scanQuestion(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Question{}, ErrQuestionNotFound
	}
	if err != nil {
		return Question{}, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

// UpsertAnswer stores or replaces the account's answer to a question
func (r *PostgresRepository) UpsertAnswer(ctx context.Context, accountID, questionID uuid.UUID, answerHash string) (Answer, error) {
	query := `
		INSERT INTO user_security_answers (account_id, question_id, answer_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, question_id)
		DO UPDATE SET answer_hash = EXCLUDED.answer_hash, updated_at = NOW()
		RETURNING id, account_id, question_id, answer_hash, created_at, updated_at
	`

	answer, err := scanAnswer(r.pool.QueryRow(ctx, query, accountID, questionID, answerHash))
	if err != nil {
		return Answer{}, fmt.Errorf("failed to upsert answer: %w", err)
	}
	return answer, nil
}

// GetAnswer returns the account's answer to a question
func (r *PostgresRepository) GetAnswer(ctx context.Context, accountID, questionID uuid.UUID) (Answer, error) {
	query := `
		SELECT id, account_id, question_id, answer_hash, created_at, updated_at
		FROM user_security_answers
		WHERE account_id = $1 AND question_id = $2
	`

	answer, err := scanAnswer(r.pool.QueryRow(ctx, query, accountID, questionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Answer{}, ErrAnswerNotFound
	}
	if err != nil {
		return Answer{}, fmt.Errorf("failed to get answer: %w", err)
	}
	return answer, nil
}

// ListAnswers returns every answer the account has configured
func (r *PostgresRepository) ListAnswers(ctx context.Context, accountID uuid.UUID) ([]Answer, error) {
	query := `
		SELECT id, account_id, question_id, answer_hash, created_at, updated_at
		FROM user_security_answers
		WHERE account_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	answers := make([]Answer, 0)
	for rows.Next() {
		answer, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}

func scanQuestion(row pgx.Row) (Question, error) {
	var question Question
	err := row.Scan(
		&question.ID,
		&question.Question,
		&question.Active,
		&question.CreatedAt,
	)
	return question, err
}

func scanAnswer(row pgx.Row) (Answer, error) {
	var answer Answer
	err := row.Scan(
		&answer.ID,
		&answer.AccountID,
		&answer.QuestionID,
		&answer.AnswerHash,
		&answer.CreatedAt,
		&answer.UpdatedAt,
	)
	return answer, err
}
