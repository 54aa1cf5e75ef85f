// Package query compiles normalized search criteria into the backend
// query DSL.
//
// The builder assembles a list of typed clause variants and folds them into
// a single conjunction, so equal criteria always produce an identical query
// expression. That determinism is what makes audit trails reproducible and
// report hashes stable when a report is regenerated from stored criteria.
package query

import (
	"time"

	"github.com/conntrace-systems/conntrace/internal/models"
)

// Backend field names for CGNAT connection events.
const (
	FieldNatIP     = "source.nat.ip"
	FieldNatPort   = "source.nat.port"
	FieldSourceIP  = "source.ip"
	FieldTimestamp = "@timestamp"
)

// IndexPattern is the backend index pattern holding CGNAT connection logs.
const IndexPattern = "cgnat-logs-*"

// BackendQuery is the compiled request sent to the search backend.
type BackendQuery struct {
	Query map[string]interface{} `json:"query"`
	Sort  []interface{}          `json:"sort"`
	Size  int                    `json:"size"`
	From  int                    `json:"from"`
}

// Clause is one predicate of the conjunction.
type Clause interface {
	encode() map[string]interface{}
}

type termClause struct {
	field string
	value interface{}
}

func (c termClause) encode() map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{c.field: c.value},
	}
}

type rangeClause struct {
	field string
	gte   *time.Time
	lte   *time.Time
}

func (c rangeClause) encode() map[string]interface{} {
	bounds := map[string]interface{}{}
	if c.gte != nil {
		bounds["gte"] = c.gte.UTC().Format(time.RFC3339)
	}
	if c.lte != nil {
		bounds["lte"] = c.lte.UTC().Format(time.RFC3339)
	}
	return map[string]interface{}{
		"range": map[string]interface{}{c.field: bounds},
	}
}

// Build compiles criteria into a BackendQuery. It is a pure function:
// identical criteria yield an identical expression.
//
// Clauses are appended in a fixed order (public IP, public port, private IP,
// time range) and folded into a bool/must conjunction; with no clauses the
// query degrades to match_all. The sort is always descending by timestamp so
// pagination stays stable across repeated queries of an unchanged dataset.
func Build(c models.SearchCriteria) BackendQuery {
	var clauses []Clause

	if c.PublicIP != "" {
		clauses = append(clauses, termClause{field: FieldNatIP, value: c.PublicIP})
	}
	if c.PublicPort != nil {
		clauses = append(clauses, termClause{field: FieldNatPort, value: *c.PublicPort})
	}
	if c.PrivateIP != "" {
		clauses = append(clauses, termClause{field: FieldSourceIP, value: c.PrivateIP})
	}
	if c.Start != nil || c.End != nil {
		clauses = append(clauses, rangeClause{field: FieldTimestamp, gte: c.Start, lte: c.End})
	}

	return BackendQuery{
		Query: fold(clauses),
		Sort: []interface{}{
			map[string]interface{}{
				FieldTimestamp: map[string]interface{}{"order": "desc"},
			},
		},
		Size: pageSize(c.Limit),
		From: c.Offset,
	}
}

// fold combines clauses into a bool/must conjunction, or match_all when the
// clause set is empty.
func fold(clauses []Clause) map[string]interface{} {
	if len(clauses) == 0 {
		return map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}
	must := make([]interface{}, 0, len(clauses))
	for _, c := range clauses {
		must = append(must, c.encode())
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{"must": must},
	}
}

// pageSize bounds the backend page. The ceiling is enforced here again,
// independent of the normalizer's clamp, so a caller bypassing normalization
// still cannot request an unbounded page.
func pageSize(limit int) int {
	if limit <= 0 {
		return models.DefaultLimit
	}
	if limit > models.MaxPageSize {
		return models.MaxPageSize
	}
	return limit
}
