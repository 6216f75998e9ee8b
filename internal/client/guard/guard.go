// Package guard rejects re-triggering an operation while a previous call is
// still outstanding. The containers do not serialize their own requests;
// callers that must not overlap wrap them in a Flag.
package guard

import (
	"sync/atomic"

	"github.com/dmitrijs2005/matchmate/internal/common"
)

// Flag is a non-blocking in-flight marker. The zero value is ready to use.
type Flag struct {
	busy atomic.Bool
}

// Run calls fn unless another Run on the same Flag is in progress, in which
// case it returns common.ErrBusy without calling fn.
func (f *Flag) Run(fn func() error) error {
	if !f.busy.CompareAndSwap(false, true) {
		return common.ErrBusy
	}
	defer f.busy.Store(false)
	return fn()
}

// Busy reports whether a Run is in progress.
func (f *Flag) Busy() bool { return f.busy.Load() }
