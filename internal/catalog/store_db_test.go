//go:build cgo

package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/chchsunny/PcWeb/internal/catalog"
)

func newSQLiteStore(t *testing.T) *catalog.SQLStore {
	t.Helper()

	db, err := catalog.OpenDB(catalog.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := catalog.NewSQLStore(db, catalog.DriverSQLite)
	for i := 0; i < 2; i++ {
		if err := s.Migrate(context.Background()); err != nil {
			t.Fatalf("Migrate #%d: %v", i+1, err)
		}
	}
	return s
}

func mustInsert(t *testing.T, s *catalog.SQLStore, parts ...catalog.Part) []catalog.Part {
	t.Helper()

	out := make([]catalog.Part, 0, len(parts))
	for _, p := range parts {
		created, err := s.Insert(context.Background(), p)
		if err != nil {
			t.Fatalf("Insert %q: %v", p.Name, err)
		}
		out = append(out, created)
	}
	return out
}

func TestSQLStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	created := mustInsert(t, s,
		catalog.Part{ID: 50, Name: "Ryzen 7", Category: "CPU", Price: decimal.RequireFromString("329.99")},
		catalog.Part{Name: "B650", Category: "Motherboard", Price: decimal.RequireFromString("189.50")},
	)
	a, b := created[0], created[1]
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids=%d,%d want=1,2", a.ID, b.ID)
	}

	got, ok, err := s.Get(ctx, a.ID)
	if err != nil || !ok {
		t.Fatalf("Get ok=%v err=%v", ok, err)
	}
	if got.Name != "Ryzen 7" || !got.Price.Equal(decimal.RequireFromString("329.99")) {
		t.Fatalf("got=%+v", got)
	}

	if _, ok, err := s.Get(ctx, 99); err != nil || ok {
		t.Fatalf("Get(99) ok=%v err=%v", ok, err)
	}

	ok, err = s.Update(ctx, catalog.Part{ID: b.ID, Name: "X670", Category: "Motherboard", Price: decimal.NewFromInt(259)})
	if err != nil || !ok {
		t.Fatalf("Update ok=%v err=%v", ok, err)
	}
	if ok, err := s.Update(ctx, catalog.Part{ID: 99, Name: "ghost"}); err != nil || ok {
		t.Fatalf("Update(99) ok=%v err=%v", ok, err)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[1].Name != "X670" {
		t.Fatalf("all=%+v", all)
	}

	if ok, err := s.Delete(ctx, a.ID); err != nil || !ok {
		t.Fatalf("Delete ok=%v err=%v", ok, err)
	}
	if ok, err := s.Delete(ctx, a.ID); err != nil || ok {
		t.Fatalf("second Delete ok=%v err=%v", ok, err)
	}

	// AUTOINCREMENT never reuses a deleted id
	c := mustInsert(t, s, catalog.Part{Name: "RTX 4070", Category: "GPU", Price: decimal.NewFromInt(599)})[0]
	if c.ID != 3 {
		t.Fatalf("id=%d want=3", c.ID)
	}
}

func TestSQLStore_GetMany(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	mustInsert(t, s,
		catalog.Part{Name: "Ryzen 7", Category: "CPU", Price: decimal.RequireFromString("10.00")},
		catalog.Part{Name: "B650", Category: "Motherboard", Price: decimal.RequireFromString("189.50")},
		catalog.Part{Name: "RTX 4070", Category: "GPU", Price: decimal.RequireFromString("25.50")},
	)

	// unknown ids ignored, duplicates collapse
	got, err := s.GetMany(ctx, []int{3, 1, 99, 1})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("got=%+v", got)
	}

	got, err = s.GetMany(ctx, nil)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("GetMany(nil)=%+v err=%v", got, err)
	}
}

func TestSQLStore_SearchTextAndCategories(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	mustInsert(t, s,
		catalog.Part{Name: "Ryzen 7", Category: "CPU", Price: decimal.NewFromInt(329)},
		catalog.Part{Name: "RTX 4070", Category: "GPU", Price: decimal.NewFromInt(599)},
		catalog.Part{Name: "RX 7800", Category: "GPU", Price: decimal.NewFromInt(499)},
		catalog.Part{Name: "100% fan", Category: "Cooling", Price: decimal.NewFromInt(20)},
	)

	cases := []struct {
		q    string
		want []string
	}{
		{q: "gpu", want: []string{"RTX 4070", "RX 7800"}},
		{q: "RYZEN", want: []string{"Ryzen 7"}},
		{q: "%", want: []string{"100% fan"}},
		{q: "_", want: nil},
	}
	for _, tc := range cases {
		got, err := s.SearchText(ctx, tc.q)
		if err != nil {
			t.Fatalf("SearchText(%q): %v", tc.q, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("SearchText(%q)=%+v want names %v", tc.q, got, tc.want)
		}
		for i := range got {
			if got[i].Name != tc.want[i] {
				t.Fatalf("SearchText(%q)[%d]=%q want=%q", tc.q, i, got[i].Name, tc.want[i])
			}
		}
	}

	cats, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if !sameSet(cats, []string{"CPU", "GPU", "Cooling"}) {
		t.Fatalf("categories=%v", cats)
	}
}
