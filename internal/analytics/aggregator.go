// internal/analytics/aggregator.go

// Package analytics derives reporting views over the persisted extraction
// data: filtered summaries, paginated scheme-interest listings, and tabular
// exports. All queries are read-only.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"msme-insights/internal/common/metrics"
	"msme-insights/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Aggregator struct {
	db     *sql.DB
	cache  *SummaryCache
	logger Logger
}

// NewAggregator builds the read side. cache may be nil to disable summary
// caching.
func NewAggregator(db *sql.DB, cache *SummaryCache, log Logger) *Aggregator {
	return &Aggregator{db: db, cache: cache, logger: log}
}

// filterClause turns AnalyticsFilters into an AND-combined predicate over the
// attribute row alias "u". Malformed pieces (half-open date ranges, empty
// strings) are skipped rather than rejected.
func filterClause(filters models.AnalyticsFilters) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filters.Location != "" {
		args = append(args, filters.Location)
		clauses = append(clauses, "u.location = "+fmt.Sprintf("$%d", len(args)))
	}
	if filters.Industry != "" {
		args = append(args, filters.Industry)
		clauses = append(clauses, "u.industry = "+fmt.Sprintf("$%d", len(args)))
	}
	if filters.BusinessSize != "" {
		args = append(args, filters.BusinessSize)
		clauses = append(clauses, "u.business_size = "+fmt.Sprintf("$%d", len(args)))
	}
	if filters.SchemeID != "" {
		args = append(args, filters.SchemeID)
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM scheme_interests fsi WHERE fsi.user_id = u.user_id AND fsi.scheme_name = $%d)",
			len(args)))
	}
	if len(filters.Languages) > 0 {
		args = append(args, pq.Array(filters.Languages))
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM extraction_jobs fj WHERE fj.user_id = u.user_id AND fj.status = 'completed' AND fj.detected_languages && $%d)",
			len(args)))
	}
	if filters.DateRange.Valid() {
		args = append(args, filters.DateRange.StartDate)
		start := fmt.Sprintf("$%d", len(args))
		args = append(args, filters.DateRange.EndDate)
		end := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM extraction_jobs dj WHERE dj.user_id = u.user_id AND dj.status = 'completed' AND dj.completed_at >= %s AND dj.completed_at <= %s)",
			start, end))
	}

	if len(clauses) == 0 {
		return "TRUE", nil
	}
	return strings.Join(clauses, " AND "), args
}

// GetSummary computes the filtered analytics summary, consulting the cache
// first when one is configured.
func (a *Aggregator) GetSummary(ctx context.Context, filters models.AnalyticsFilters) (*models.AnalyticsSummary, error) {
	if a.cache != nil {
		if summary, ok := a.cache.Get(ctx, filters); ok {
			metrics.AnalyticsCacheHits.WithLabelValues("hit").Inc()
			return summary, nil
		}
		metrics.AnalyticsCacheHits.WithLabelValues("miss").Inc()
	}

	summary, err := a.computeSummary(ctx, filters)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		a.cache.Set(ctx, filters, summary)
	}
	return summary, nil
}

func (a *Aggregator) computeSummary(ctx context.Context, filters models.AnalyticsFilters) (*models.AnalyticsSummary, error) {
	where, args := filterClause(filters)
	summary := &models.AnalyticsSummary{}

	totalsQuery := fmt.Sprintf(`
		SELECT COUNT(*),
		       COUNT(DISTINCT u.location),
		       COUNT(DISTINCT u.industry)
		FROM user_business_attributes u
		WHERE %s`, where)
	err := a.db.QueryRowContext(ctx, totalsQuery, args...).Scan(
		&summary.TotalUsers, &summary.UniqueLocations, &summary.UniqueIndustries,
	)
	if err != nil {
		return nil, fmt.Errorf("summary totals: %w", err)
	}

	conversationsQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM conversations c
		WHERE c.user_id IN (SELECT u.user_id FROM user_business_attributes u WHERE %s)`, where)
	if err := a.db.QueryRowContext(ctx, conversationsQuery, args...).Scan(&summary.TotalConversations); err != nil {
		return nil, fmt.Errorf("summary conversations: %w", err)
	}

	summary.IndustryDistribution, err = a.distribution(ctx, "industry", where, args)
	if err != nil {
		return nil, err
	}
	summary.LocationDistribution, err = a.distribution(ctx, "location", where, args)
	if err != nil {
		return nil, err
	}

	summary.SchemePopularity, err = a.schemePopularity(ctx, where, args, summary.TotalUsers)
	if err != nil {
		return nil, err
	}

	summary.ConversationTrend, err = a.conversationTrend(ctx, where, args)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// distribution aggregates one attribute column into category buckets.
// Percentages are computed here over the bucketed total; rounding is left to
// the presentation layer.
func (a *Aggregator) distribution(ctx context.Context, column, where string, args []interface{}) ([]models.DistributionSlice, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(u.%s, 'Other'), COUNT(*)
		FROM user_business_attributes u
		WHERE %s
		GROUP BY 1
		ORDER BY 2 DESC, 1 ASC`, column, where)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s distribution: %w", column, err)
	}
	defer rows.Close()

	var slices []models.DistributionSlice
	total := 0
	for rows.Next() {
		var s models.DistributionSlice
		if err := rows.Scan(&s.Category, &s.UserCount); err != nil {
			return nil, fmt.Errorf("scan %s distribution: %w", column, err)
		}
		total += s.UserCount
		slices = append(slices, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s distribution: %w", column, err)
	}

	if total > 0 {
		for i := range slices {
			slices[i].Percentage = float64(slices[i].UserCount) / float64(total) * 100
		}
	}
	return slices, nil
}

func (a *Aggregator) schemePopularity(ctx context.Context, where string, args []interface{}, totalUsers int) ([]models.SchemePopularity, error) {
	query := fmt.Sprintf(`
		SELECT si.scheme_name, COUNT(DISTINCT si.user_id)
		FROM scheme_interests si
		JOIN user_business_attributes u ON u.user_id = si.user_id
		WHERE %s
		GROUP BY si.scheme_name
		ORDER BY 2 DESC, 1 ASC`, where)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scheme popularity: %w", err)
	}
	defer rows.Close()

	var popularity []models.SchemePopularity
	for rows.Next() {
		var p models.SchemePopularity
		if err := rows.Scan(&p.SchemeName, &p.UserCount); err != nil {
			return nil, fmt.Errorf("scan scheme popularity: %w", err)
		}
		if totalUsers > 0 {
			p.Percentage = float64(p.UserCount) / float64(totalUsers) * 100
		}
		popularity = append(popularity, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheme popularity: %w", err)
	}
	return popularity, nil
}

func (a *Aggregator) conversationTrend(ctx context.Context, where string, args []interface{}) ([]models.TrendPoint, error) {
	query := fmt.Sprintf(`
		SELECT TO_CHAR(DATE(c.created_at), 'YYYY-MM-DD'), COUNT(*)
		FROM conversations c
		WHERE c.user_id IN (SELECT u.user_id FROM user_business_attributes u WHERE %s)
		GROUP BY 1
		ORDER BY 1 ASC`, where)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversation trend: %w", err)
	}
	defer rows.Close()

	var trend []models.TrendPoint
	for rows.Next() {
		var p models.TrendPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("scan conversation trend: %w", err)
		}
		trend = append(trend, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation trend: %w", err)
	}
	return trend, nil
}

// schemeSortColumns whitelists sortable fields for GetSchemeInterests.
var schemeSortColumns = map[string]string{
	"schemeName":      "scheme_name",
	"userCount":       "user_count",
	"mentionedCount":  "mentioned_count",
	"inquiredCount":   "inquired_count",
	"detailedCount":   "detailed_count",
	"lastMentionedAt": "last_mentioned_at",
}

// GetSchemeInterests returns per-scheme aggregates, filtered, sorted and
// paginated. Pagination is 1-indexed; total reflects the filtered count
// before slicing; ties always break by scheme name ascending.
func (a *Aggregator) GetSchemeInterests(ctx context.Context, filters models.AnalyticsFilters, page models.PageRequest, sort models.SortRequest) (*models.SchemeInterestPage, error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize <= 0 {
		page.PageSize = defaultPageSize
	}
	if page.PageSize > maxPageSize {
		page.PageSize = maxPageSize
	}

	column, ok := schemeSortColumns[sort.Field]
	if !ok {
		column = "user_count"
	}
	direction := "DESC"
	if strings.EqualFold(sort.Direction, "asc") {
		direction = "ASC"
	}

	where, args := filterClause(filters)

	countQuery := fmt.Sprintf(`
		SELECT COUNT(DISTINCT si.scheme_name)
		FROM scheme_interests si
		JOIN user_business_attributes u ON u.user_id = si.user_id
		WHERE %s`, where)

	var total int
	if err := a.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("scheme interests count: %w", err)
	}

	limitArgs := append(append([]interface{}{}, args...), page.PageSize, (page.Page-1)*page.PageSize)
	dataQuery := fmt.Sprintf(`
		SELECT si.scheme_name,
		       COUNT(DISTINCT si.user_id) AS user_count,
		       COUNT(*) FILTER (WHERE si.interest_level = 'mentioned') AS mentioned_count,
		       COUNT(*) FILTER (WHERE si.interest_level = 'inquired') AS inquired_count,
		       COUNT(*) FILTER (WHERE si.interest_level = 'detailed') AS detailed_count,
		       MAX(si.last_mentioned_at) AS last_mentioned_at
		FROM scheme_interests si
		JOIN user_business_attributes u ON u.user_id = si.user_id
		WHERE %s
		GROUP BY si.scheme_name
		ORDER BY %s %s, scheme_name ASC
		LIMIT $%d OFFSET $%d`, where, column, direction, len(args)+1, len(args)+2)

	rows, err := a.db.QueryContext(ctx, dataQuery, limitArgs...)
	if err != nil {
		return nil, fmt.Errorf("scheme interests: %w", err)
	}
	defer rows.Close()

	data := []models.SchemeInterestSummary{}
	for rows.Next() {
		var s models.SchemeInterestSummary
		if err := rows.Scan(&s.SchemeName, &s.UserCount, &s.MentionedCount, &s.InquiredCount, &s.DetailedCount, &s.LastMentionedAt); err != nil {
			return nil, fmt.Errorf("scan scheme interests: %w", err)
		}
		data = append(data, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheme interests: %w", err)
	}

	return &models.SchemeInterestPage{
		Data: data,
		Pagination: models.Pagination{
			Page:     page.Page,
			PageSize: page.PageSize,
			Total:    total,
		},
	}, nil
}
