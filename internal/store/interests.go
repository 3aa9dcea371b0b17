// internal/store/interests.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"msme-insights/internal/models"
)

type InterestStore struct {
	db *sql.DB
}

func NewInterestStore(db *sql.DB) *InterestStore {
	return &InterestStore{db: db}
}

// interestRank mirrors models.InterestLevel.Rank in SQL so the upgrade rule
// is enforced at the row, not in application memory.
const interestRank = `
	CASE %s
		WHEN 'mentioned' THEN 1
		WHEN 'inquired' THEN 2
		WHEN 'detailed' THEN 3
		ELSE 0
	END`

// Upsert records a scheme mention. The interest level only ever upgrades;
// last_mentioned_at always moves forward.
func (s *InterestStore) Upsert(ctx context.Context, userID string, mention models.SchemeMention, mentionedAt time.Time) error {
	query := fmt.Sprintf(`
		INSERT INTO scheme_interests (user_id, scheme_name, interest_level, last_mentioned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, scheme_name) DO UPDATE SET
			interest_level = CASE
				WHEN %s > %s THEN EXCLUDED.interest_level
				ELSE scheme_interests.interest_level
			END,
			last_mentioned_at = GREATEST(scheme_interests.last_mentioned_at, EXCLUDED.last_mentioned_at)`,
		fmt.Sprintf(interestRank, "EXCLUDED.interest_level"),
		fmt.Sprintf(interestRank, "scheme_interests.interest_level"),
	)

	_, err := s.db.ExecContext(ctx, query, userID, mention.SchemeName, mention.InterestLevel, mentionedAt)
	if err != nil {
		return fmt.Errorf("upsert scheme interest: %w", err)
	}
	return nil
}

// ListForUser returns the user's scheme interests, strongest first.
func (s *InterestStore) ListForUser(ctx context.Context, userID string) ([]models.SchemeInterest, error) {
	query := fmt.Sprintf(`
		SELECT user_id, scheme_name, interest_level, last_mentioned_at
		FROM scheme_interests
		WHERE user_id = $1
		ORDER BY %s DESC, scheme_name ASC`,
		fmt.Sprintf(interestRank, "interest_level"),
	)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list scheme interests: %w", err)
	}
	defer rows.Close()

	var interests []models.SchemeInterest
	for rows.Next() {
		var si models.SchemeInterest
		if err := rows.Scan(&si.UserID, &si.SchemeName, &si.InterestLevel, &si.LastMentionedAt); err != nil {
			return nil, fmt.Errorf("scan scheme interest: %w", err)
		}
		interests = append(interests, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheme interests: %w", err)
	}
	return interests, nil
}
