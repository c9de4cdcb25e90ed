package tenant

import (
	"strings"

	"github.com/google/uuid"
	"github.com/storehub/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Callback adds the context organization to queries on tenant tables
type Callback struct {
	required bool
}

// Register installs the tenant callbacks on db. With required=true a tenant
// table queried without an organization in context fails instead of running
// unfiltered.
func Register(db *gorm.DB, required bool) error {
	c := &Callback{required: required}
	if err := db.Callback().Query().Before("gorm:query").Register("tenant:before_query", c.apply); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenant:before_update", c.apply); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("tenant:before_delete", c.apply); err != nil {
		return err
	}
	return db.Callback().Row().Before("gorm:row").Register("tenant:before_row", c.apply)
}

// Unregister removes the callbacks. Used by tests.
func Unregister(db *gorm.DB) {
	_ = db.Callback().Query().Remove("tenant:before_query")
	_ = db.Callback().Update().Remove("tenant:before_update")
	_ = db.Callback().Delete().Remove("tenant:before_delete")
	_ = db.Callback().Row().Remove("tenant:before_row")
}

func (c *Callback) apply(db *gorm.DB) {
	stmt := db.Statement
	if stmt.Context == nil || stmt.Unscoped || isCrossTenant(db) {
		return
	}
	if stmt.Schema == nil || stmt.Schema.LookUpField(Column) == nil {
		return
	}
	if stmt.SQL.Len() > 0 || c.hasCondition(stmt) {
		return
	}

	tenantID := logger.GetTenantID(stmt.Context)
	if tenantID == "" {
		if c.required {
			_ = db.AddError(ErrTenantIDRequired)
		}
		return
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		_ = db.AddError(ErrInvalidTenantID)
		return
	}

	stmt.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: Column},
			Value:  tenantID,
		},
	}})
}

func (c *Callback) hasCondition(stmt *gorm.Statement) bool {
	cl, ok := stmt.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := cl.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range where.Exprs {
		if mentionsTenant(expr) {
			return true
		}
	}
	return false
}

func mentionsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		return columnIsTenant(e.Column)
	case clause.IN:
		return columnIsTenant(e.Column)
	case clause.Expr:
		return strings.Contains(e.SQL, Column)
	case clause.NamedExpr:
		return strings.Contains(e.SQL, Column)
	case clause.AndConditions:
		for _, sub := range e.Exprs {
			if mentionsTenant(sub) {
				return true
			}
		}
	case clause.OrConditions:
		for _, sub := range e.Exprs {
			if mentionsTenant(sub) {
				return true
			}
		}
	}
	return false
}

func columnIsTenant(col any) bool {
	switch c := col.(type) {
	case clause.Column:
		return c.Name == Column
	case string:
		return c == Column
	}
	return false
}
