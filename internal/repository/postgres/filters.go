package postgres

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/stocksense/internal/domain"
)

// buildSuggestionFilterClause constructs the optional filters of a suggestion listing
func buildSuggestionFilterClause(filter domain.SuggestionFilter, alias string, startIndex int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("%sstatus = $%d", alias, idx))
		args = append(args, filter.Status)
		idx++
	}

	if filter.Urgency != "" {
		clauses = append(clauses, fmt.Sprintf("%surgency = $%d", alias, idx))
		args = append(args, filter.Urgency)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

// limitClause renders a LIMIT placeholder, or nothing when limit is unset.
func limitClause(limit, idx int) (string, []interface{}) {
	if limit <= 0 {
		return "", nil
	}
	return fmt.Sprintf(" LIMIT $%d", idx), []interface{}{limit}
}

// urgencyRankExpr mirrors domain.Urgency.Rank for ORDER BY.
func urgencyRankExpr(column string) string {
	return fmt.Sprintf(`CASE %s
			WHEN '%s' THEN %d
			WHEN '%s' THEN %d
			WHEN '%s' THEN %d
			WHEN '%s' THEN %d
			ELSE 0 END`,
		column,
		domain.UrgencyCritical, domain.UrgencyCritical.Rank(),
		domain.UrgencyHigh, domain.UrgencyHigh.Rank(),
		domain.UrgencyMedium, domain.UrgencyMedium.Rank(),
		domain.UrgencyLow, domain.UrgencyLow.Rank(),
	)
}
