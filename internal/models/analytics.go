// internal/models/analytics.go
package models

import "time"

// DateRange bounds analytics queries on extraction activity time. Both bounds
// must be present; a half-open range is treated as "filter not applied".
type DateRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Valid reports whether the range has both bounds in order.
func (r *DateRange) Valid() bool {
	return r != nil && !r.StartDate.IsZero() && !r.EndDate.IsZero() && !r.EndDate.Before(r.StartDate)
}

// AnalyticsFilters is the intersection predicate applied by the aggregator.
// All fields are optional and combined by logical AND.
type AnalyticsFilters struct {
	DateRange    *DateRange `json:"dateRange,omitempty"`
	Location     string     `json:"location,omitempty"`
	Industry     string     `json:"industry,omitempty"`
	SchemeID     string     `json:"schemeId,omitempty"`
	BusinessSize string     `json:"businessSize,omitempty"`
	Languages    []string   `json:"languages,omitempty"`
}

// DistributionSlice is one category bucket of a distribution. Percentage is
// kept as a raw float; rounding happens at the presentation layer.
type DistributionSlice struct {
	Category   string  `json:"category"`
	UserCount  int     `json:"userCount"`
	Percentage float64 `json:"percentage"`
}

// SchemePopularity ranks a scheme by distinct interested users.
type SchemePopularity struct {
	SchemeName string  `json:"schemeName"`
	UserCount  int     `json:"userCount"`
	Percentage float64 `json:"percentage"`
}

// TrendPoint is one day of conversation activity.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AnalyticsSummary is the derived (never persisted) reporting view.
type AnalyticsSummary struct {
	TotalUsers           int                 `json:"totalUsers"`
	TotalConversations   int                 `json:"totalConversations"`
	UniqueLocations      int                 `json:"uniqueLocations"`
	UniqueIndustries     int                 `json:"uniqueIndustries"`
	IndustryDistribution []DistributionSlice `json:"industryDistribution"`
	LocationDistribution []DistributionSlice `json:"locationDistribution"`
	SchemePopularity     []SchemePopularity  `json:"schemePopularity"`
	ConversationTrend    []TrendPoint        `json:"conversationTrend"`
}

// PageRequest is 1-indexed pagination input.
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Pagination echoes the request alongside the filtered total (counted before
// page slicing).
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

// SortRequest names a whitelisted sort field and direction ("asc"/"desc").
type SortRequest struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// SchemeInterestSummary is one aggregated row of the paginated
// scheme-interest listing.
type SchemeInterestSummary struct {
	SchemeName      string    `json:"schemeName"`
	UserCount       int       `json:"userCount"`
	MentionedCount  int       `json:"mentionedCount"`
	InquiredCount   int       `json:"inquiredCount"`
	DetailedCount   int       `json:"detailedCount"`
	LastMentionedAt time.Time `json:"lastMentionedAt"`
}

// SchemeInterestPage is the standard paginated response shape.
type SchemeInterestPage struct {
	Data       []SchemeInterestSummary `json:"data"`
	Pagination Pagination              `json:"pagination"`
}
