package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/psychotest-app/psychotest-api/internal/scoring"
)

// AnswerSet holds the submitted answers verbatim. It is stored as JSONB so
// the per-type encoding (strings for Phillips, integers for Olweus) survives
// round trips for audit and detail views.
type AnswerSet []json.RawMessage

// Value implements driver.Valuer for JSONB storage.
func (a AnswerSet) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal([]json.RawMessage(a))
}

// Scan implements sql.Scanner for JSONB retrieval.
func (a *AnswerSet) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported answers column type %T", src)
	}
	return json.Unmarshal(raw, (*[]json.RawMessage)(a))
}

// TestResult is an immutable record of one scored submission. Rows are
// created once by the test service and never updated.
type TestResult struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      scoring.TestType `db:"type" json:"type"`
	Answers   AnswerSet        `db:"answers" json:"answers"`
	Score     float64          `db:"score" json:"score"`
	Category  string           `db:"category" json:"category"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// TestResultDetail annotates a result with its owner for psychologist views.
type TestResultDetail struct {
	TestResult
	UserName  string   `db:"user_name" json:"user_name"`
	UserEmail string   `db:"user_email" json:"user_email"`
	UserRole  UserRole `db:"user_role" json:"user_role"`
}

// ResultFilter captures filtering criteria for listing results.
type ResultFilter struct {
	Type     string
	Category string
	UserID   string
	Sort     string
}

// CategoryStats buckets result counts by test type and category.
type CategoryStats map[scoring.TestType]map[string]int

// SummaryStats is the coarse dashboard report.
type SummaryStats struct {
	TotalTests     int `json:"total_tests"`
	HighAnxiety    int `json:"high_anxiety"`
	BullyingCases  int `json:"bullying_cases"`
	UniqueStudents int `json:"unique_students"`
}
