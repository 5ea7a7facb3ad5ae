// Package filter translates the typed admin list filters into SQL
// via squirrel. Sort columns are whitelisted per view so request
// input can never reach the ORDER BY clause verbatim.
package filter

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/homefax/homefax/pkg/repository"
)

const defaultTake = 25

var userSortColumns = map[string]string{
	"created": "created",
	"updated": "updated",
	"email":   "email",
	"name":    "name",
	"role":    "role",
}

var contractorSortColumns = map[string]string{
	"created":       "u.created",
	"email":         "u.email",
	"name":          "u.name",
	"business_name": "p.business_name",
	"rating":        "p.rating",
}

var homeSortColumns = map[string]string{
	"created": "created",
	"address": "address",
	"city":    "city",
	"state":   "state",
	"zip":     "zip",
}

var transferSortColumns = map[string]string{
	"created":    "created",
	"expires_at": "expires_at",
	"status":     "status",
}

// Users builds the select and count queries for the admin users view.
func Users(columns string, f repository.UserFilter) (sq.SelectBuilder, sq.SelectBuilder) {
	q := sq.Select(strings.Split(columns, ", ")...).From("users")
	c := sq.Select("COUNT(*)").From("users")

	if f.Search != "" {
		like := contains(f.Search)
		cond := sq.Or{
			likeExpr("LOWER(email)", like),
			likeExpr("LOWER(name)", like),
		}
		q = q.Where(cond)
		c = c.Where(cond)
	}
	if f.Role != "" {
		q = q.Where(sq.Eq{"role": f.Role})
		c = c.Where(sq.Eq{"role": f.Role})
	}
	if f.ProStatus != "" {
		q = q.Where(sq.Eq{"pro_status": f.ProStatus})
		c = c.Where(sq.Eq{"pro_status": f.ProStatus})
	}
	if f.Suspended != nil {
		v := 0
		if *f.Suspended {
			v = 1
		}
		q = q.Where(sq.Eq{"suspended": v})
		c = c.Where(sq.Eq{"suspended": v})
	}

	q = q.OrderBy(orderBy(userSortColumns, f.Sort, "created DESC"))
	return paginate(q, f.Page), c
}

// Contractors builds the joined users/pro_profiles queries for the
// admin contractors view.
func Contractors(userCols, profileCols string, f repository.ContractorFilter) (sq.SelectBuilder, sq.SelectBuilder) {
	cols := append(prefix("u.", userCols), prefix("p.", profileCols)...)
	q := sq.Select(cols...).
		From("users u").
		Join("pro_profiles p ON p.user_id = u.id").
		Where(sq.Eq{"u.role": "PRO"})
	c := sq.Select("COUNT(*)").
		From("users u").
		Join("pro_profiles p ON p.user_id = u.id").
		Where(sq.Eq{"u.role": "PRO"})

	if f.Search != "" {
		like := contains(f.Search)
		cond := sq.Or{
			likeExpr("LOWER(u.email)", like),
			likeExpr("LOWER(u.name)", like),
			likeExpr("LOWER(p.business_name)", like),
		}
		q = q.Where(cond)
		c = c.Where(cond)
	}
	if f.ProStatus != "" {
		q = q.Where(sq.Eq{"u.pro_status": f.ProStatus})
		c = c.Where(sq.Eq{"u.pro_status": f.ProStatus})
	}
	if f.ProType != "" {
		q = q.Where(sq.Eq{"p.pro_type": f.ProType})
		c = c.Where(sq.Eq{"p.pro_type": f.ProType})
	}

	q = q.OrderBy(orderBy(contractorSortColumns, f.Sort, "u.created DESC"))
	return paginate(q, f.Page), c
}

// Homes builds the select and count queries for the admin homes view.
func Homes(columns string, f repository.HomeFilter) (sq.SelectBuilder, sq.SelectBuilder) {
	q := sq.Select(strings.Split(columns, ", ")...).From("homes")
	c := sq.Select("COUNT(*)").From("homes")

	if f.Search != "" {
		like := contains(f.Search)
		cond := sq.Or{
			likeExpr("LOWER(address)", like),
			likeExpr("LOWER(city)", like),
			likeExpr("LOWER(zip)", like),
		}
		q = q.Where(cond)
		c = c.Where(cond)
	}
	if f.VerificationStatus != "" {
		q = q.Where(sq.Eq{"verification_status": f.VerificationStatus})
		c = c.Where(sq.Eq{"verification_status": f.VerificationStatus})
	}

	q = q.OrderBy(orderBy(homeSortColumns, f.Sort, "created DESC"))
	return paginate(q, f.Page), c
}

// Transfers builds the select and count queries for the admin home
// transfers view.
func Transfers(columns string, f repository.TransferFilter) (sq.SelectBuilder, sq.SelectBuilder) {
	q := sq.Select(strings.Split(columns, ", ")...).From("home_transfers")
	c := sq.Select("COUNT(*)").From("home_transfers")

	if f.Search != "" {
		cond := likeExpr("LOWER(to_email)", contains(f.Search))
		q = q.Where(cond)
		c = c.Where(cond)
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": f.Status})
		c = c.Where(sq.Eq{"status": f.Status})
	}

	q = q.OrderBy(orderBy(transferSortColumns, f.Sort, "created DESC"))
	return paginate(q, f.Page), c
}

func likeExpr(column, pattern string) sq.Sqlizer {
	return sq.Expr(column+` LIKE ? ESCAPE '\'`, pattern)
}

func contains(s string) string {
	return "%" + strings.ToLower(escapeLike(s)) + "%"
}

// escapeLike neutralizes LIKE metacharacters in raw search input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

func orderBy(allowed map[string]string, s repository.Sort, fallback string) string {
	col, ok := allowed[s.Column]
	if !ok {
		return fallback
	}
	if s.Desc {
		return col + " DESC"
	}
	return col + " ASC"
}

func paginate(q sq.SelectBuilder, p repository.Page) sq.SelectBuilder {
	take := p.Take
	if take <= 0 {
		take = defaultTake
	}
	q = q.Limit(uint64(take))
	if p.Skip > 0 {
		q = q.Offset(uint64(p.Skip))
	}
	return q
}

func prefix(p, columns string) []string {
	parts := strings.Split(columns, ", ")
	out := make([]string, len(parts))
	for i, col := range parts {
		out[i] = p + col
	}
	return out
}
