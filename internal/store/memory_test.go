package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iwvelando/payment-plan/internal/plan"
)

var testNow = time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

// tickingClock advances one second per call.
func tickingClock() func() time.Time {
	now := testNow
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func samplePlan(client, project string, price float64) plan.Configuration {
	c := plan.OnPriceChange(plan.NewConfiguration(testNow), price)
	c.Client = client
	c.Project = project
	return c
}

func seed(t *testing.T, s Store, plans ...plan.Configuration) []Record {
	t.Helper()
	records := make([]Record, 0, len(plans))
	for _, p := range plans {
		r, err := s.Save(context.Background(), p)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		records = append(records, r)
	}
	return records
}

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(tickingClock())

	saved, err := s.Save(ctx, samplePlan("Ana", "Torre", 100000))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ID == "" || !saved.CreatedAt.Equal(saved.UpdatedAt) {
		t.Fatalf("unexpected record %+v", saved)
	}

	got, err := s.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !plan.Equal(got.Plan, saved.Plan) {
		t.Errorf("Get() returned a different plan")
	}

	edited := got.Plan
	edited.Client = "Ana María"
	updated, err := s.Update(ctx, saved.ID, edited)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.CreatedAt.Equal(saved.CreatedAt) || !updated.UpdatedAt.After(saved.UpdatedAt) {
		t.Errorf("unexpected timestamps %+v", updated)
	}
	if updated.Plan.Client != "Ana María" {
		t.Errorf("update not stored")
	}

	if err := s.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := s.Update(ctx, saved.ID, edited); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on update after delete, got %v", err)
	}
	if err := s.Delete(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestMemoryDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(tickingClock())

	p := samplePlan("Ana", "Torre", 100000)
	p.Payments = []plan.Installment{{ID: 1, Date: testNow, Ordinary: 100}}
	saved, _ := s.Save(ctx, p)

	p.Payments[0].Extra = 50
	saved.Plan.Payments[0].Extra = 60

	got, _ := s.Get(ctx, saved.ID)
	if got.Plan.Payments[0].Extra != 0 {
		t.Errorf("stored plan shares memory with callers")
	}
}

func TestMemoryList(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(tickingClock())
	records := seed(t, s,
		samplePlan("Carlos", "Mirador", 300000),
		samplePlan("ana", "Torre", 100000),
		samplePlan("Beatriz", "Torre Norte", 200000),
		samplePlan("Andrés", "Costa", 150000),
	)

	tests := []struct {
		name     string
		query    Query
		expected []string
		hasMore  bool
	}{
		{"Default newest first", Query{}, []string{"Andrés", "Beatriz", "ana", "Carlos"}, false},
		{"Client ascending", Query{Sort: SortClient, Direction: Asc}, []string{"ana", "Andrés", "Beatriz", "Carlos"}, false},
		{"Price descending", Query{Sort: "PRICE", Direction: "DESC"}, []string{"Carlos", "Beatriz", "Andrés", "ana"}, false},
		{"Client prefix", Query{ClientPrefix: "AN", Sort: SortClient, Direction: Asc}, []string{"ana", "Andrés"}, false},
		{"Project prefix", Query{ProjectPrefix: "torre", Sort: SortCreatedAt, Direction: Asc}, []string{"ana", "Beatriz"}, false},
		{"Both prefixes", Query{ClientPrefix: "b", ProjectPrefix: "torre"}, []string{"Beatriz"}, false},
		{"Full page", Query{Sort: SortPrice, Direction: Asc, PageSize: 2}, []string{"ana", "Andrés"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.List(ctx, tt.query)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := clients(page.Records); fmt.Sprint(got) != fmt.Sprint(tt.expected) {
				t.Errorf("List() = %v, expected %v", got, tt.expected)
			}
			if page.HasMore != tt.hasMore {
				t.Errorf("HasMore = %v, expected %v", page.HasMore, tt.hasMore)
			}
			if page.HasMore == (page.NextCursor == "") {
				t.Errorf("NextCursor %q inconsistent with HasMore %v", page.NextCursor, page.HasMore)
			}
		})
	}

	if err := s.Delete(ctx, records[0].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	page, _ := s.List(ctx, Query{})
	if len(page.Records) != 3 {
		t.Errorf("deleted plan still listed: %v", clients(page.Records))
	}
}

func TestMemoryListPagination(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(tickingClock())
	for i := 0; i < 7; i++ {
		seed(t, s, samplePlan(fmt.Sprintf("Client %d", i), "P", float64(1000*(i%3+1))))
	}

	for _, direction := range []Direction{Asc, Desc} {
		t.Run(string(direction), func(t *testing.T) {
			q := Query{Sort: SortPrice, Direction: direction, PageSize: 3}
			seen := map[string]bool{}
			pages := 0
			for {
				page, err := s.List(ctx, q)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				pages++
				for _, r := range page.Records {
					if seen[r.ID] {
						t.Fatalf("record %s returned twice", r.ID)
					}
					seen[r.ID] = true
				}
				if !page.HasMore {
					break
				}
				q.Cursor = page.NextCursor
			}
			if len(seen) != 7 || pages != 3 {
				t.Errorf("walked %d records in %d pages", len(seen), pages)
			}
		})
	}
}

func TestMemoryListInvalidCursor(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(tickingClock())
	seed(t, s, samplePlan("A", "P", 1), samplePlan("B", "P", 2))

	page, _ := s.List(ctx, Query{Sort: SortClient, PageSize: 1})

	if _, err := s.List(ctx, Query{Cursor: "!!!"}); !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("expected ErrInvalidCursor for garbage, got %v", err)
	}
	if _, err := s.List(ctx, Query{Sort: SortPrice, Cursor: page.NextCursor}); !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("expected ErrInvalidCursor for a cursor from another sort, got %v", err)
	}
}

func TestQueryNormalize(t *testing.T) {
	q := Query{PageSize: 1000, ClientPrefix: "  a "}.Normalize()
	if q.Sort != SortCreatedAt || q.Direction != Desc || q.PageSize != 100 || q.ClientPrefix != "a" {
		t.Errorf("unexpected normalized query %+v", q)
	}
	if q := (Query{}).Normalize(); q.PageSize != 10 {
		t.Errorf("default page size = %d", q.PageSize)
	}
}

func clients(records []Record) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Plan.Client
	}
	return names
}
