package query

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/conntrace-systems/conntrace/internal/models"
)

func TestBuildMatchAll(t *testing.T) {
	q := Build(models.SearchCriteria{})

	if _, ok := q.Query["match_all"]; !ok {
		t.Fatal("empty criteria should produce match_all")
	}
	if q.Size != models.DefaultLimit {
		t.Errorf("expected default size %d, got %d", models.DefaultLimit, q.Size)
	}
	if q.From != 0 {
		t.Errorf("expected from=0, got %d", q.From)
	}
}

func TestBuildTermClauses(t *testing.T) {
	port := 40123
	start := time.Date(2024, 3, 15, 17, 30, 0, 0, time.UTC)
	end := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

	q := Build(models.SearchCriteria{
		PublicIP:   "177.45.123.45",
		PublicPort: &port,
		PrivateIP:  "100.64.12.7",
		Start:      &start,
		End:        &end,
		Limit:      500,
		Offset:     100,
	})

	boolQuery := q.Query["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	if len(must) != 4 {
		t.Fatalf("expected 4 clauses, got %d", len(must))
	}

	// Clause order is fixed: nat ip, nat port, source ip, time range.
	term0 := must[0].(map[string]interface{})["term"].(map[string]interface{})
	if term0[FieldNatIP] != "177.45.123.45" {
		t.Errorf("expected nat ip clause first, got %v", term0)
	}
	term1 := must[1].(map[string]interface{})["term"].(map[string]interface{})
	if term1[FieldNatPort] != 40123 {
		t.Errorf("expected nat port clause second, got %v", term1)
	}
	term2 := must[2].(map[string]interface{})["term"].(map[string]interface{})
	if term2[FieldSourceIP] != "100.64.12.7" {
		t.Errorf("expected source ip clause third, got %v", term2)
	}

	rangeClause := must[3].(map[string]interface{})["range"].(map[string]interface{})
	bounds := rangeClause[FieldTimestamp].(map[string]interface{})
	if bounds["gte"] != "2024-03-15T17:30:00Z" {
		t.Errorf("unexpected gte: %v", bounds["gte"])
	}
	if bounds["lte"] != "2024-03-15T18:00:00Z" {
		t.Errorf("unexpected lte: %v", bounds["lte"])
	}

	if q.Size != 500 || q.From != 100 {
		t.Errorf("expected size=500 from=100, got size=%d from=%d", q.Size, q.From)
	}
}

func TestBuildOpenEndedRange(t *testing.T) {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	q := Build(models.SearchCriteria{Start: &start})

	boolQuery := q.Query["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	bounds := must[0].(map[string]interface{})["range"].(map[string]interface{})[FieldTimestamp].(map[string]interface{})

	if _, ok := bounds["gte"]; !ok {
		t.Error("expected gte bound")
	}
	if _, ok := bounds["lte"]; ok {
		t.Error("open-ended range must not emit lte")
	}
}

func TestBuildSizeCeiling(t *testing.T) {
	q := Build(models.SearchCriteria{Limit: 50000})
	if q.Size != models.MaxPageSize {
		t.Errorf("expected size capped at %d, got %d", models.MaxPageSize, q.Size)
	}

	q = Build(models.SearchCriteria{Limit: -1})
	if q.Size != models.DefaultLimit {
		t.Errorf("expected default size for non-positive limit, got %d", q.Size)
	}
}

func TestBuildSortDescendingByTimestamp(t *testing.T) {
	q := Build(models.SearchCriteria{})
	if len(q.Sort) != 1 {
		t.Fatalf("expected single sort key, got %d", len(q.Sort))
	}
	sort := q.Sort[0].(map[string]interface{})[FieldTimestamp].(map[string]interface{})
	if sort["order"] != "desc" {
		t.Errorf("expected desc order, got %v", sort["order"])
	}
}

func TestBuildDeterministic(t *testing.T) {
	port := 443
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	criteria := models.SearchCriteria{
		PublicIP:   "177.45.123.45",
		PublicPort: &port,
		Start:      &start,
		Limit:      100,
	}

	first, err := json.Marshal(Build(criteria))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := json.Marshal(Build(criteria))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(next) != string(first) {
			t.Fatalf("query not deterministic:\n%s\n%s", first, next)
		}
	}
}
