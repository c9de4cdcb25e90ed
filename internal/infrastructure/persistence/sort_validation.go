package persistence

import (
	"strings"

	"github.com/storehub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowed[trimmed] {
		return trimmed
	}
	return defaultField
}

var (
	// CategorySortFields are the sortable category columns
	CategorySortFields = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"sort_order": true,
	}

	// ProductSortFields are the sortable product columns
	ProductSortFields = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"sku":        true,
		"price":      true,
		"stock":      true,
	}

	// CustomerSortFields are the sortable customer columns
	CustomerSortFields = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"email":      true,
	}

	// SaleSortFields are the sortable sale columns
	SaleSortFields = map[string]bool{
		"created_at": true,
		"number":     true,
		"total":      true,
		"status":     true,
	}

	// MovementSortFields are the sortable stock movement columns
	MovementSortFields = map[string]bool{
		"created_at": true,
		"quantity":   true,
	}
)

// orderClause builds a whitelisted "field DIR" clause
func orderClause(filter shared.Filter, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(filter.OrderBy, allowed, defaultField) + " " + ValidateSortOrder(filter.OrderDir)
}

// paginate applies offset/limit after normalizing the filter
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	filter.Normalize()
	return query.Offset(filter.Offset()).Limit(filter.PageSize)
}

// likePattern escapes LIKE wildcards and wraps the term in %...%
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(term))) + "%"
}
