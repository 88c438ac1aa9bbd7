package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// RiskEntry is one employee on the risk board.
type RiskEntry struct {
	Rank             int       `json:"rank"`
	EmployeeID       int       `json:"employee_id"`
	ProbabilityLeave float64   `json:"probability_leave"`
	RiskLevel        string    `json:"risk_level"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Treap ordered by probability DESC, then employee id ASC, so an in-order
// walk lists the most likely leavers first. Priorities are random.
type node struct {
	id    int
	p     float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// ahead reports whether (aP, aID) ranks before (bP, bID).
func ahead(aP float64, aID int, bP float64, bID int) bool {
	if aP != bP {
		return aP > bP
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id int, p float64, prio uint64) *node {
	if n == nil {
		return &node{id: id, p: p, prio: prio, size: 1}
	}
	if ahead(p, id, n.p, n.id) {
		n.left = insert(n.left, id, p, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, p, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, id int, p float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.id == id && n.p == p:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, p)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, p)
		}
	case ahead(p, id, n.p, n.id):
		n.left = remove(n.left, id, p)
	default:
		n.right = remove(n.right, id, p)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes have a probability strictly above p.
func countAbove(n *node, p float64) int {
	count := 0
	for n != nil {
		if n.p > p {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

type boardRecord struct {
	p         float64
	level     string
	updatedAt time.Time
}

// RiskBoard ranks employees by their latest leave probability. A new
// prediction for an employee replaces the previous one. Employees with equal
// probabilities share a rank.
type RiskBoard struct {
	mu   sync.RWMutex
	root *node
	byID map[int]boardRecord
	now  func() time.Time
}

// NewRiskBoard constructs an empty board.
func NewRiskBoard() *RiskBoard {
	return &RiskBoard{byID: make(map[int]boardRecord), now: time.Now}
}

// Update records the latest probability for an employee in O(log n).
func (b *RiskBoard) Update(_ context.Context, employeeID int, pLeave float64, level string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.byID[employeeID]; ok {
		b.root = remove(b.root, employeeID, old.p)
	}
	b.byID[employeeID] = boardRecord{p: pLeave, level: level, updatedAt: b.now()}
	b.root = insert(b.root, employeeID, pLeave, rand.Uint64())
}

// Rank returns the entry of one employee or ErrNotFound.
func (b *RiskBoard) Rank(_ context.Context, employeeID int) (RiskEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.byID[employeeID]
	if !ok {
		return RiskEntry{}, ErrNotFound
	}
	return RiskEntry{
		Rank:             countAbove(b.root, rec.p) + 1,
		EmployeeID:       employeeID,
		ProbabilityLeave: rec.p,
		RiskLevel:        rec.level,
		UpdatedAt:        rec.updatedAt,
	}, nil
}

// TopN returns up to n employees, most likely leavers first.
func (b *RiskBoard) TopN(_ context.Context, n int) ([]RiskEntry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]RiskEntry, 0, min(n, len(b.byID)))
	b.collect(b.root, n, &out)

	// Competition ranking: ties share the rank of the first of them.
	for i := range out {
		if i > 0 && out[i].ProbabilityLeave == out[i-1].ProbabilityLeave {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out, nil
}

func (b *RiskBoard) collect(n *node, limit int, out *[]RiskEntry) {
	if n == nil || len(*out) >= limit {
		return
	}
	b.collect(n.left, limit, out)
	if len(*out) < limit {
		rec := b.byID[n.id]
		*out = append(*out, RiskEntry{
			EmployeeID:       n.id,
			ProbabilityLeave: rec.p,
			RiskLevel:        rec.level,
			UpdatedAt:        rec.updatedAt,
		})
	}
	b.collect(n.right, limit, out)
}

// Count returns the number of employees on the board.
func (b *RiskBoard) Count(_ context.Context) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byID)
}
