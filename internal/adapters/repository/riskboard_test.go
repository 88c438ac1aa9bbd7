package repository

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
)

func TestRiskBoard_Ordering(t *testing.T) {
	ctx := context.Background()
	b := NewRiskBoard()

	b.Update(ctx, 10, 0.20, "Low")
	b.Update(ctx, 11, 0.85, "High")
	b.Update(ctx, 12, 0.50, "Medium")
	b.Update(ctx, 13, 0.85, "High")

	top, err := b.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("topN: %v", err)
	}
	wantIDs := []int{11, 13, 12, 10}
	wantRanks := []int{1, 1, 3, 4}
	if len(top) != len(wantIDs) {
		t.Fatalf("expected %d entries, got %d", len(wantIDs), len(top))
	}
	for i := range top {
		if top[i].EmployeeID != wantIDs[i] || top[i].Rank != wantRanks[i] {
			t.Errorf("top[%d] = {id %d rank %d}, want {id %d rank %d}",
				i, top[i].EmployeeID, top[i].Rank, wantIDs[i], wantRanks[i])
		}
	}

	e, err := b.Rank(ctx, 13)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if e.Rank != 1 || e.RiskLevel != "High" {
		t.Errorf("unexpected entry for 13: %+v", e)
	}
}

func TestRiskBoard_LatestPredictionWins(t *testing.T) {
	ctx := context.Background()
	b := NewRiskBoard()

	b.Update(ctx, 1, 0.9, "High")
	b.Update(ctx, 2, 0.5, "Medium")
	b.Update(ctx, 1, 0.1, "Low")

	if b.Count(ctx) != 2 {
		t.Fatalf("expected 2 employees, got %d", b.Count(ctx))
	}
	e, _ := b.Rank(ctx, 1)
	if e.Rank != 2 || e.ProbabilityLeave != 0.1 || e.RiskLevel != "Low" {
		t.Errorf("expected employee 1 to drop to rank 2 with the new probability, got %+v", e)
	}
	top, _ := b.TopN(ctx, 1)
	if top[0].EmployeeID != 2 {
		t.Errorf("expected employee 2 on top, got %d", top[0].EmployeeID)
	}
}

func TestRiskBoard_Errors(t *testing.T) {
	ctx := context.Background()
	b := NewRiskBoard()

	if _, err := b.Rank(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := b.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	top, err := b.TopN(ctx, 5)
	if err != nil || len(top) != 0 {
		t.Errorf("expected empty board, got %v %v", top, err)
	}
}

func TestRiskBoard_MatchesSort(t *testing.T) {
	ctx := context.Background()
	b := NewRiskBoard()
	r := rand.New(rand.NewPCG(1, 2))

	latest := map[int]float64{}
	for i := 0; i < 2000; i++ {
		id := r.IntN(300)
		// two decimals so ties are common
		p := float64(r.IntN(100)) / 100
		b.Update(ctx, id, p, "Low")
		latest[id] = p
	}

	type pair struct {
		id int
		p  float64
	}
	want := make([]pair, 0, len(latest))
	for id, p := range latest {
		want = append(want, pair{id, p})
	}
	sort.Slice(want, func(i, j int) bool { return ahead(want[i].p, want[i].id, want[j].p, want[j].id) })

	top, err := b.TopN(ctx, len(want))
	if err != nil {
		t.Fatalf("topN: %v", err)
	}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i := range want {
		if top[i].EmployeeID != want[i].id || top[i].ProbabilityLeave != want[i].p {
			t.Fatalf("position %d: got {%d %.2f}, want {%d %.2f}",
				i, top[i].EmployeeID, top[i].ProbabilityLeave, want[i].id, want[i].p)
		}
		e, _ := b.Rank(ctx, want[i].id)
		if e.Rank != top[i].Rank {
			t.Fatalf("rank mismatch for %d: Rank=%d TopN=%d", want[i].id, e.Rank, top[i].Rank)
		}
	}
	if nsize(b.root) != len(want) {
		t.Errorf("tree size %d, want %d", nsize(b.root), len(want))
	}
}

func TestRiskBoard_Concurrent(t *testing.T) {
	ctx := context.Background()
	b := NewRiskBoard()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				b.Update(ctx, g*1000+i, float64(i)/200, "Medium")
				_, _ = b.TopN(ctx, 5)
			}
		}(g)
	}
	wg.Wait()

	if b.Count(ctx) != 1600 {
		t.Errorf("expected 1600 employees, got %d", b.Count(ctx))
	}
}
