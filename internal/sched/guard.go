package sched

// ResourceGuard enforces at-most-one-writer exclusion over a SlotGrid.
// Translated from the C++ resource_guard/token pair in the original
// scheduler (a unique_ptr<bool, release_deleter> that flips a shared
// flag back to false on destruction) into a Go struct that plays the
// same role without RAII: the caller must call Token.Release() (or let
// it go out of scope and call it via defer) when done with the grid.
type ResourceGuard struct {
	busy bool
}

// Busy reports whether a token is currently held.
func (g *ResourceGuard) Busy() bool { return g.busy }

// Acquire attempts to take ownership of the guard. The returned Token
// is empty if the guard was already busy.
func (g *ResourceGuard) Acquire() Token {
	if g.busy {
		return Token{}
	}
	g.busy = true
	return Token{flag: &g.busy}
}

// Token represents ownership of a ResourceGuard. The zero Token is
// always empty (a failed acquisition).
type Token struct {
	flag *bool
}

// Empty reports whether this token failed to acquire the guard.
func (t *Token) Empty() bool { return t.flag == nil }

// OwnsToken reports whether this token currently owns its guard.
func (t *Token) OwnsToken() bool { return t.flag != nil }

// Release restores the guard to free. Releasing an empty token, or
// releasing the same token twice, is a no-op (P5) — the flag pointer
// is cleared on first release so a second call has nothing to act on.
func (t *Token) Release() {
	if t.flag == nil {
		return
	}
	if !*t.flag {
		panic("sched: resource guard inconsistency — token held a guard that was not marked busy")
	}
	*t.flag = false
	t.flag = nil
}
