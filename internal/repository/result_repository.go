package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/psychotest-app/psychotest-api/internal/models"
)

// ResultRepository manages persistence for scored test results. Rows are
// append-only: there is no update or delete path.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs a new repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

const resultColumns = "id, user_id, type, answers, score, category, created_at"

// Create inserts a scored result.
func (r *ResultRepository) Create(ctx context.Context, result *models.TestResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO test_results (id, user_id, type, answers, score, category, created_at)
VALUES (:id, :user_id, :type, :answers, :score, :category, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create test result: %w", err)
	}
	return nil
}

// FindByID returns a single result. sql.ErrNoRows passes through so callers
// can distinguish a missing row.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.TestResult, error) {
	var result models.TestResult
	query := fmt.Sprintf("SELECT %s FROM test_results WHERE id = $1 LIMIT 1", resultColumns)
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindByUser returns all results for one owner, newest first.
func (r *ResultRepository) FindByUser(ctx context.Context, userID string) ([]models.TestResult, error) {
	var results []models.TestResult
	query := fmt.Sprintf("SELECT %s FROM test_results WHERE user_id = $1 ORDER BY created_at DESC", resultColumns)
	if err := r.db.SelectContext(ctx, &results, query, userID); err != nil {
		return nil, fmt.Errorf("find results by user: %w", err)
	}
	return results, nil
}

// FindAll returns results matching the filter, each annotated with its owner.
func (r *ResultRepository) FindAll(ctx context.Context, filter models.ResultFilter) ([]models.TestResultDetail, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Type != "" {
		where = append(where, fmt.Sprintf("tr.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Category != "" {
		where = append(where, fmt.Sprintf("tr.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("tr.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}

	order := "DESC"
	if strings.EqualFold(filter.Sort, "asc") {
		order = "ASC"
	}

	query := fmt.Sprintf(`SELECT tr.id, tr.user_id, tr.type, tr.answers, tr.score, tr.category, tr.created_at,
u.full_name AS user_name, u.email AS user_email, u.role AS user_role
FROM test_results tr
JOIN users u ON u.id = tr.user_id
WHERE %s ORDER BY tr.created_at %s`, strings.Join(where, " AND "), order)

	var results []models.TestResultDetail
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("find all results: %w", err)
	}
	return results, nil
}

// FindSince returns the lightweight rows the aggregator works over. A zero
// since time means no window.
func (r *ResultRepository) FindSince(ctx context.Context, since time.Time) ([]models.TestResult, error) {
	query := "SELECT id, user_id, type, score, category, created_at FROM test_results"
	args := []interface{}{}
	if !since.IsZero() {
		query += " WHERE created_at >= $1"
		args = append(args, since)
	}

	var results []models.TestResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("find results since: %w", err)
	}
	return results, nil
}
