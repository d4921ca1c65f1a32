package option

import (
	"fmt"
	"strings"
	"time"

	"chamber122/pkg/db/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption is a gorm scope applied by repository reads.
type QueryOption func(*gorm.DB) *gorm.DB

type Operator string

const (
	EQ   Operator = "="
	NEQ  Operator = "<>"
	GT   Operator = ">"
	GTE  Operator = ">="
	LT   Operator = "<"
	LTE  Operator = "<="
	IN   Operator = "IN"
	LIKE Operator = "LIKE"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

func LockingUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// WithLockingUpdate adds SELECT ... FOR UPDATE. sqlite ignores it.
func WithLockingUpdate() QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
			return db
		}
		return LockingUpdate(db)
	}
}

func ApplyOperator(conds ...Condition) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range conds {
			col := clause.Column{Name: c.Field}
			switch c.Operator {
			case IN:
				db = db.Where(clause.IN{Column: col, Values: toValues(c.Value)})
			case "":
				db = db.Where(clause.Eq{Column: col, Value: c.Value})
			default:
				db = db.Where(fmt.Sprintf("%s %s ?", quoteField(c.Field), c.Operator), c.Value)
			}
		}
		return db
	}
}

// WithSortBy orders by SortBy when Allow lists it, else by created_at.
// OrderBy alone with no SortBy sorts created_at in that direction.
func WithSortBy(s QuerySortBy) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		field := "created_at"
		if s.SortBy != "" && s.Allow[s.SortBy] {
			field = s.SortBy
		}
		desc := strings.EqualFold(s.OrderBy, "desc")
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: field}, Desc: desc})
	}
}

// ApplyPagination limits the result and, when a cursor is set, seeks past it
// on (created_at, id) descending. It fetches Limit+1 rows so the caller can
// tell whether another page exists. Put it after WithSortBy: id is added as
// the tie-breaking sort key.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		limit := p.Limit
		if limit <= 0 {
			limit = pagination.DefaultLimit
		}
		if limit > pagination.MaxLimit {
			limit = pagination.MaxLimit
		}
		if p.Cursor != "" {
			if cur, err := pagination.DecodeCursor(p.Cursor); err == nil && cur.CreatedAt != "" {
				if at, err := time.Parse(time.RFC3339Nano, cur.CreatedAt); err == nil {
					db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", at, at, cur.ID)
				}
			}
		}
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).Limit(limit + 1)
	}
}

func WithPreload(assoc string, args ...any) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(assoc, args...)
	}
}

func toValues(v any) []any {
	switch vs := v.(type) {
	case []any:
		return vs
	case []string:
		out := make([]any, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out
	case []int64:
		out := make([]any, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

func quoteField(f string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, f)
}
