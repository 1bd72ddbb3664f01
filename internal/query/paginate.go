// Package query applies the shared list semantics (search, filters, eager
// loading, sorting and pagination) to a gorm query from request parameters.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultSortColumn = "id"
	DefaultPerPage    = 10
	MaxPerPage        = 100
)

// Request parameters understood by Paginate.
const (
	ParamSearch  = "search"
	ParamWith    = "with"
	ParamSortBy  = "sort_by"
	ParamSortDir = "sort_dir"
	ParamPerPage = "per_page"
	ParamPage    = "page"
)

// Options whitelists what a caller may search, filter, sort or load.
// AllowedRelations holds gorm association names such as "Regencies".
// SearchRelated, when set, is OR-ed into the search with the escaped LIKE
// pattern so a caller can match on joined tables.
type Options struct {
	AllowedSort       []string
	AllowedRelations  []string
	SearchableColumns []string
	FilterableColumns []string
	SearchRelated     func(pattern string) clause.Expression
}

// LikeEscape is the ESCAPE clause matching the patterns built by Paginate.
const LikeEscape = `ESCAPE '\'`

// Page describes one page of results.
type Page struct {
	Total       int64
	PerPage     int
	CurrentPage int
	LastPage    int
	From        *int
	To          *int
}

// Params are the normalised request parameters.
type Params struct {
	Search    string
	Filters   map[string]string
	Relations []string
	SortBy    string
	SortDesc  bool
	PerPage   int
	Page      int
}

// ParseParams normalises values against opts. Unknown sort columns and
// relations are dropped, never rejected.
func ParseParams(values url.Values, opts Options) Params {
	p := Params{
		Search:  strings.TrimSpace(values.Get(ParamSearch)),
		Filters: make(map[string]string),
		SortBy:  DefaultSortColumn,
		PerPage: parsePerPage(values.Get(ParamPerPage)),
		Page:    parsePage(values.Get(ParamPage)),
	}

	for _, column := range opts.FilterableColumns {
		if v := values.Get(column); v != "" {
			p.Filters[column] = v
		}
	}

	if with := values.Get(ParamWith); with != "" {
		for _, name := range strings.Split(with, ",") {
			if relation, ok := matchFold(opts.AllowedRelations, strings.TrimSpace(name)); ok && !contains(p.Relations, relation) {
				p.Relations = append(p.Relations, relation)
			}
		}
	}

	if sortBy := values.Get(ParamSortBy); contains(opts.AllowedSort, sortBy) {
		p.SortBy = sortBy
	}
	p.SortDesc = values.Get(ParamSortDir) == "desc"

	return p
}

// Paginate filters db by the request parameters, counts the matches and loads
// the requested page into dest (a pointer to a slice).
func Paginate(db *gorm.DB, values url.Values, opts Options, dest interface{}) (*Page, error) {
	p := ParseParams(values, opts)

	q := db
	if p.Search != "" && (len(opts.SearchableColumns) > 0 || opts.SearchRelated != nil) {
		q = q.Where(searchClause(opts, p.Search))
	}
	for _, column := range opts.FilterableColumns {
		if v, ok := p.Filters[column]; ok {
			q = q.Where(clause.Eq{Column: clause.Column{Name: column}, Value: v})
		}
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}

	for _, relation := range p.Relations {
		q = q.Preload(relation)
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: p.SortBy}, Desc: p.SortDesc})
	if p.SortBy != DefaultSortColumn {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: DefaultSortColumn}, Desc: p.SortDesc})
	}

	offset := (p.Page - 1) * p.PerPage
	if err := q.Offset(offset).Limit(p.PerPage).Find(dest).Error; err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	return NewPage(total, p.PerPage, p.Page), nil
}

// NewPage computes the page bounds. From and To stay nil when the page holds no items.
func NewPage(total int64, perPage, currentPage int) *Page {
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}

	page := &Page{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: currentPage,
		LastPage:    lastPage,
	}

	first := int64(currentPage-1)*int64(perPage) + 1
	if first <= total {
		last := first + int64(perPage) - 1
		if last > total {
			last = total
		}
		from, to := int(first), int(last)
		page.From, page.To = &from, &to
	}
	return page
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ContainsPattern lowercases term and escapes LIKE wildcards so it matches
// literally anywhere in a value.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func searchClause(opts Options, term string) clause.Expression {
	pattern := ContainsPattern(term)
	exprs := make([]clause.Expression, 0, len(opts.SearchableColumns)+1)
	for _, column := range opts.SearchableColumns {
		exprs = append(exprs, clause.Expr{
			SQL:  "LOWER(?) LIKE ? " + LikeEscape,
			Vars: []interface{}{clause.Column{Name: column}, pattern},
		})
	}
	if opts.SearchRelated != nil {
		exprs = append(exprs, opts.SearchRelated(pattern))
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return clause.Or(exprs...)
}

func parsePerPage(raw string) int {
	if raw == "" {
		return DefaultPerPage
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultPerPage
	}
	if n < 1 {
		return 1
	}
	if n > MaxPerPage {
		return MaxPerPage
	}
	return n
}

func parsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func matchFold(allowed []string, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, name) {
			return candidate, true
		}
	}
	return "", false
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
