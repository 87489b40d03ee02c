package Ledger

import (
	"fmt"
	"sync"
)

// entityLocks serializes mutations per entity id. Payment approval and
// reversal on one loan must never interleave, and stock deduction must be
// serialized per product. Lock order is fixed: loan, then products (by
// ascending id), then customer.
type entityLocks struct {
	mu      sync.Mutex
	entries map[string]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{entries: make(map[string]*sync.Mutex)}
}

func (e *entityLocks) get(kind string, id uint) *sync.Mutex {
	key := fmt.Sprintf("%s:%d", kind, id)
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.entries[key]
	if !ok {
		m = &sync.Mutex{}
		e.entries[key] = m
	}
	return m
}

// lockLoan acquires the per-loan mutex and returns its unlock.
func (e *entityLocks) lockLoan(id uint) func() {
	m := e.get("loan", id)
	m.Lock()
	return m.Unlock
}

// lockCustomer acquires the per-customer mutex. Always taken after the
// loan lock when both are needed.
func (e *entityLocks) lockCustomer(id uint) func() {
	m := e.get("customer", id)
	m.Lock()
	return m.Unlock
}

// lockProducts acquires product mutexes in ascending id order and returns
// a single unlock for all of them.
func (e *entityLocks) lockProducts(ids []uint) func() {
	sorted := make([]uint, len(ids))
	copy(sorted, ids)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	locked := make([]*sync.Mutex, 0, len(sorted))
	seen := make(map[uint]bool, len(sorted))
	for _, id := range sorted {
		if seen[id] {
			continue
		}
		seen[id] = true
		m := e.get("product", id)
		m.Lock()
		locked = append(locked, m)
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}

// loanNumberMu serializes same-day loan number generation.
var loanNumberMu sync.Mutex
