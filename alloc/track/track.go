// Package track wraps an alloc.Allocator with accounting, layout verification
// and fault injection.
//
// A Tracker remembers every region it handed out together with its layout. It
// reports outstanding bytes, flags frees whose layout does not match the
// allocation, and lists leaks on Check. FailOn makes the k-th call fail
// without reaching the wrapped allocator.
package track

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/joshuapare/rawvec/alloc"
)

// Options configures a Tracker. Nil fields fall back to no-op implementations.
type Options struct {
	Logger *zap.Logger
	Meter  metric.Meter
}

// Violation describes a call that broke the allocator contract.
type Violation struct {
	Op       string
	Ptr      uintptr
	Layout   alloc.Layout
	Expected alloc.Layout // zero when Ptr was unknown
}

func (v Violation) Error() string {
	if v.Expected == (alloc.Layout{}) {
		return fmt.Sprintf("track: %s of unknown pointer %#x with layout %v", v.Op, v.Ptr, v.Layout)
	}
	return fmt.Sprintf("track: %s of %#x with layout %v, allocated with %v", v.Op, v.Ptr, v.Layout, v.Expected)
}

// ErrLeak is wrapped by Check for every region still live.
var ErrLeak = errors.New("track: leaked allocation")

// Tracker is an alloc.Allocator that records what passes through it.
// It is safe for concurrent use.
type Tracker struct {
	next alloc.Allocator
	log  *zap.Logger

	calls     metric.Int64Counter
	failures  metric.Int64Counter
	inFlight  metric.Int64UpDownCounter
	opAlloc   metric.MeasurementOption
	opRealloc metric.MeasurementOption
	opFree    metric.MeasurementOption

	mu          sync.Mutex
	live        map[uintptr]alloc.Layout
	outstanding uintptr
	peak        uintptr
	nCalls      int
	nFrees      int
	failAt      int // absolute call number that fails, 0 = none
	failAlways  bool
	violations  []error
}

// New wraps next. opts may be nil.
func New(next alloc.Allocator, opts *Options) (*Tracker, error) {
	if next == nil {
		return nil, errors.New("track: nil allocator")
	}
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	meter := opts.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}

	t := &Tracker{
		next:      next,
		log:       log,
		live:      make(map[uintptr]alloc.Layout),
		opAlloc:   metric.WithAttributes(attribute.String("op", "allocate")),
		opRealloc: metric.WithAttributes(attribute.String("op", "reallocate")),
		opFree:    metric.WithAttributes(attribute.String("op", "free")),
	}

	var err error
	if t.calls, err = meter.Int64Counter("rawvec.alloc.calls",
		metric.WithDescription("Allocator calls by operation")); err != nil {
		return nil, fmt.Errorf("track: calls counter: %w", err)
	}
	if t.failures, err = meter.Int64Counter("rawvec.alloc.failures",
		metric.WithDescription("Allocate and Reallocate calls that returned an error")); err != nil {
		return nil, fmt.Errorf("track: failures counter: %w", err)
	}
	if t.inFlight, err = meter.Int64UpDownCounter("rawvec.alloc.outstanding",
		metric.WithDescription("Bytes allocated and not yet freed"),
		metric.WithUnit("By")); err != nil {
		return nil, fmt.Errorf("track: outstanding counter: %w", err)
	}
	return t, nil
}

// Allocate forwards to the wrapped allocator unless a failure is scheduled.
func (t *Tracker) Allocate(l alloc.Layout) (unsafe.Pointer, error) {
	ctx := context.Background()
	t.calls.Add(ctx, 1, t.opAlloc)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.tick(); err != nil {
		t.fail(ctx, "allocate", l, err)
		return nil, err
	}
	p, err := t.next.Allocate(l)
	if err != nil {
		t.fail(ctx, "allocate", l, err)
		return nil, err
	}
	t.adopt(ctx, p, l)
	t.log.Debug("allocate", zap.Uintptr("ptr", uintptr(p)), zap.Uintptr("size", l.Size), zap.Uintptr("align", l.Align))
	return p, nil
}

// Reallocate verifies old against the recorded layout before forwarding.
// An unknown p is returned as a Violation without reaching the wrapped allocator.
func (t *Tracker) Reallocate(p unsafe.Pointer, old alloc.Layout, newSize uintptr) (unsafe.Pointer, error) {
	ctx := context.Background()
	t.calls.Add(ctx, 1, t.opRealloc)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.verify("reallocate", p, old) {
		return nil, t.violations[len(t.violations)-1]
	}
	if err := t.tick(); err != nil {
		t.fail(ctx, "reallocate", old.WithSize(newSize), err)
		return nil, err
	}
	np, err := t.next.Reallocate(p, old, newSize)
	if err != nil {
		t.fail(ctx, "reallocate", old.WithSize(newSize), err)
		return nil, err
	}
	t.release(ctx, p)
	t.adopt(ctx, np, old.WithSize(newSize))
	t.log.Debug("reallocate",
		zap.Uintptr("from", uintptr(p)),
		zap.Uintptr("ptr", uintptr(np)),
		zap.Uintptr("old_size", old.Size),
		zap.Uintptr("size", newSize),
		zap.Uintptr("align", old.Align))
	return np, nil
}

// Free verifies l against the recorded layout and forwards. Unknown pointers
// are recorded as violations and not forwarded.
func (t *Tracker) Free(p unsafe.Pointer, l alloc.Layout) {
	ctx := context.Background()
	t.calls.Add(ctx, 1, t.opFree)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.verify("free", p, l) {
		return
	}
	t.nFrees++
	t.release(ctx, p)
	t.next.Free(p, l)
	t.log.Debug("free", zap.Uintptr("ptr", uintptr(p)), zap.Uintptr("size", l.Size), zap.Uintptr("align", l.Align))
}

// FailOn schedules the k-th Allocate or Reallocate call from now (1-based) to
// fail with alloc.ErrAllocFailed. k <= 0 cancels a scheduled failure.
func (t *Tracker) FailOn(k int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if k <= 0 {
		t.failAt = 0
		return
	}
	t.failAt = t.nCalls + k
}

// FailAlways makes every Allocate and Reallocate call fail until Restore.
func (t *Tracker) FailAlways() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failAlways = true
}

// Restore cancels FailOn and FailAlways.
func (t *Tracker) Restore() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failAlways = false
	t.failAt = 0
}

// Outstanding returns the bytes allocated and not yet freed.
func (t *Tracker) Outstanding() uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outstanding
}

// Peak returns the largest value Outstanding has reached.
func (t *Tracker) Peak() uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peak
}

// Live returns the number of regions not yet freed.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Calls returns the number of Allocate and Reallocate calls, failed ones included.
func (t *Tracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nCalls
}

// Frees returns the number of successful Free calls.
func (t *Tracker) Frees() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nFrees
}

// LayoutOf returns the recorded layout of a live region.
func (t *Tracker) LayoutOf(p unsafe.Pointer) (alloc.Layout, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.live[uintptr(p)]
	return l, ok
}

// Err returns every contract violation seen so far, joined, or nil.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return errors.Join(t.violations...)
}

// Check returns an error naming each live region, or nil when every
// allocation has been freed.
func (t *Tracker) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.live) == 0 {
		return nil
	}
	ptrs := make([]uintptr, 0, len(t.live))
	for p := range t.live {
		ptrs = append(ptrs, p)
	}
	sort.Slice(ptrs, func(i, j int) bool { return ptrs[i] < ptrs[j] })
	errs := make([]error, 0, len(ptrs))
	for _, p := range ptrs {
		errs = append(errs, fmt.Errorf("%w: %#x %v", ErrLeak, p, t.live[p]))
	}
	return errors.Join(errs...)
}

// tick counts a call and reports whether it was scheduled to fail.
func (t *Tracker) tick() error {
	t.nCalls++
	if t.failAlways || t.nCalls == t.failAt {
		if t.nCalls == t.failAt {
			t.failAt = 0
		}
		return fmt.Errorf("%w: injected failure on call %d", alloc.ErrAllocFailed, t.nCalls)
	}
	return nil
}

func (t *Tracker) fail(ctx context.Context, op string, l alloc.Layout, err error) {
	t.failures.Add(ctx, 1)
	t.log.Warn(op+" failed",
		zap.Uintptr("size", l.Size),
		zap.Uintptr("align", l.Align),
		zap.Error(err))
}

func (t *Tracker) adopt(ctx context.Context, p unsafe.Pointer, l alloc.Layout) {
	t.live[uintptr(p)] = l
	t.outstanding += l.Size
	t.peak = max(t.peak, t.outstanding)
	t.inFlight.Add(ctx, int64(l.Size))
}

func (t *Tracker) release(ctx context.Context, p unsafe.Pointer) {
	l, ok := t.live[uintptr(p)]
	if !ok {
		return
	}
	delete(t.live, uintptr(p))
	t.outstanding -= l.Size
	t.inFlight.Add(ctx, -int64(l.Size))
}

// verify reports whether p is live. A layout mismatch is recorded but still
// counts as live so the region is not leaked by the tracker itself.
func (t *Tracker) verify(op string, p unsafe.Pointer, l alloc.Layout) bool {
	want, ok := t.live[uintptr(p)]
	switch {
	case !ok:
		t.violate(Violation{Op: op, Ptr: uintptr(p), Layout: l})
		return false
	case want != l:
		t.violate(Violation{Op: op, Ptr: uintptr(p), Layout: l, Expected: want})
	}
	return true
}

func (t *Tracker) violate(v Violation) {
	t.violations = append(t.violations, v)
	t.log.Error("allocator contract violation",
		zap.String("op", v.Op),
		zap.Uintptr("ptr", v.Ptr),
		zap.Stringer("layout", v.Layout),
		zap.Stringer("expected", v.Expected))
}
