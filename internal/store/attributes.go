// internal/store/attributes.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"msme-insights/internal/models"
)

type AttributeStore struct {
	db *sql.DB
}

func NewAttributeStore(db *sql.DB) *AttributeStore {
	return &AttributeStore{db: db}
}

// Upsert merges incoming normalized attributes into the user's single
// canonical row. Field rules:
//   - a NULL incoming field never erases a stored value
//   - a stored NULL is always filled by a non-null incoming value
//   - a stored non-null value is overwritten only when the incoming
//     extraction's confidence is at least the stored confidence
//   - the stored confidence is the max seen so far
func (s *AttributeStore) Upsert(ctx context.Context, attrs *models.NormalizedUserAttributes) error {
	const query = `
		INSERT INTO user_business_attributes
			(user_id, location, industry, business_size, annual_turnover, employee_count, confidence, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			location = CASE
				WHEN EXCLUDED.location IS NULL THEN user_business_attributes.location
				WHEN user_business_attributes.location IS NULL THEN EXCLUDED.location
				WHEN EXCLUDED.confidence >= user_business_attributes.confidence THEN EXCLUDED.location
				ELSE user_business_attributes.location
			END,
			industry = CASE
				WHEN EXCLUDED.industry IS NULL THEN user_business_attributes.industry
				WHEN user_business_attributes.industry IS NULL THEN EXCLUDED.industry
				WHEN EXCLUDED.confidence >= user_business_attributes.confidence THEN EXCLUDED.industry
				ELSE user_business_attributes.industry
			END,
			business_size = CASE
				WHEN EXCLUDED.business_size IS NULL THEN user_business_attributes.business_size
				WHEN user_business_attributes.business_size IS NULL THEN EXCLUDED.business_size
				WHEN EXCLUDED.confidence >= user_business_attributes.confidence THEN EXCLUDED.business_size
				ELSE user_business_attributes.business_size
			END,
			annual_turnover = CASE
				WHEN EXCLUDED.annual_turnover IS NULL THEN user_business_attributes.annual_turnover
				WHEN user_business_attributes.annual_turnover IS NULL THEN EXCLUDED.annual_turnover
				WHEN EXCLUDED.confidence >= user_business_attributes.confidence THEN EXCLUDED.annual_turnover
				ELSE user_business_attributes.annual_turnover
			END,
			employee_count = CASE
				WHEN EXCLUDED.employee_count IS NULL THEN user_business_attributes.employee_count
				WHEN user_business_attributes.employee_count IS NULL THEN EXCLUDED.employee_count
				WHEN EXCLUDED.confidence >= user_business_attributes.confidence THEN EXCLUDED.employee_count
				ELSE user_business_attributes.employee_count
			END,
			confidence = GREATEST(user_business_attributes.confidence, EXCLUDED.confidence),
			updated_at = NOW()`

	_, err := s.db.ExecContext(ctx, query,
		attrs.UserID,
		attrs.Location,
		attrs.Industry,
		attrs.BusinessSize,
		attrs.AnnualTurnover,
		attrs.EmployeeCount,
		attrs.Confidence,
	)
	if err != nil {
		return fmt.Errorf("upsert attributes: %w", err)
	}
	return nil
}

func (s *AttributeStore) Get(ctx context.Context, userID string) (*models.NormalizedUserAttributes, error) {
	const query = `
		SELECT user_id, location, industry, business_size, annual_turnover, employee_count, confidence, updated_at
		FROM user_business_attributes
		WHERE user_id = $1`

	var a models.NormalizedUserAttributes
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&a.UserID, &a.Location, &a.Industry, &a.BusinessSize,
		&a.AnnualTurnover, &a.EmployeeCount, &a.Confidence, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attributes for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get attributes: %w", err)
	}
	return &a, nil
}
