package track

import (
	"context"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joshuapare/rawvec/alloc"
)

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := New(alloc.Heap, nil)
	require.NoError(t, err)
	return tr
}

// sumOf adds up every data point of the named int64 sum instrument.
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestNew_NilAllocator(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

// TestTracker_Balanced checks outstanding bytes follow allocate, grow and free.
func TestTracker_Balanced(t *testing.T) {
	tr := newTracker(t)
	l := alloc.Layout{Size: 32, Align: 8}

	p, err := tr.Allocate(l)
	require.NoError(t, err)
	assert.Equal(t, uintptr(32), tr.Outstanding())
	assert.Equal(t, 1, tr.Live())

	p, err = tr.Reallocate(p, l, 64)
	require.NoError(t, err)
	assert.Equal(t, uintptr(64), tr.Outstanding())
	assert.Equal(t, 1, tr.Live(), "reallocate replaces the region")

	got, ok := tr.LayoutOf(p)
	require.True(t, ok)
	assert.Equal(t, l.WithSize(64), got)

	tr.Free(p, l.WithSize(64))
	assert.Zero(t, tr.Outstanding())
	assert.Zero(t, tr.Live())
	assert.Equal(t, uintptr(64), tr.Peak())
	assert.Equal(t, 2, tr.Calls())
	assert.Equal(t, 1, tr.Frees())
	require.NoError(t, tr.Check())
	require.NoError(t, tr.Err())
}

func TestTracker_CheckReportsLeaks(t *testing.T) {
	tr := newTracker(t)
	l := alloc.Layout{Size: 16, Align: 4}
	p1, err := tr.Allocate(l)
	require.NoError(t, err)
	p2, err := tr.Allocate(l)
	require.NoError(t, err)

	err = tr.Check()
	require.ErrorIs(t, err, ErrLeak)
	assert.Contains(t, err.Error(), "size=16")

	tr.Free(p1, l)
	tr.Free(p2, l)
	require.NoError(t, tr.Check())
}

// TestTracker_LayoutMismatch checks frees with the wrong layout are flagged.
func TestTracker_LayoutMismatch(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	tr, err := New(alloc.Heap, &Options{Logger: zap.New(core)})
	require.NoError(t, err)

	l := alloc.Layout{Size: 32, Align: 8}
	p, err := tr.Allocate(l)
	require.NoError(t, err)

	tr.Free(p, alloc.Layout{Size: 16, Align: 8})

	var v Violation
	require.ErrorAs(t, tr.Err(), &v)
	assert.Equal(t, "free", v.Op)
	assert.Equal(t, l, v.Expected)
	assert.Equal(t, alloc.Layout{Size: 16, Align: 8}, v.Layout)
	assert.Zero(t, tr.Live(), "the region is still released")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "allocator contract violation", entry.Message)
	assert.Equal(t, "free", entry.ContextMap()["op"])
}

func TestTracker_UnknownPointer(t *testing.T) {
	tr := newTracker(t)
	var x [8]byte
	l := alloc.Layout{Size: 8, Align: 1}

	tr.Free(unsafe.Pointer(&x[0]), l)
	assert.Zero(t, tr.Frees(), "unknown pointers are not forwarded")

	_, err := tr.Reallocate(unsafe.Pointer(&x[0]), l, 16)
	var v Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "reallocate", v.Op)
	assert.Contains(t, v.Error(), "unknown pointer")

	assert.Len(t, unwrapJoined(tr.Err()), 2)
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	if err == nil {
		return nil
	}
	return []error{err}
}

// TestTracker_FailOn checks only the scheduled call fails.
func TestTracker_FailOn(t *testing.T) {
	tr := newTracker(t)
	l := alloc.Layout{Size: 8, Align: 8}

	tr.FailOn(2)
	p, err := tr.Allocate(l)
	require.NoError(t, err, "call 1 succeeds")

	_, err = tr.Reallocate(p, l, 16)
	require.ErrorIs(t, err, alloc.ErrAllocFailed, "call 2 fails")
	got, ok := tr.LayoutOf(p)
	require.True(t, ok, "failed reallocate leaves the region live")
	assert.Equal(t, l, got)

	p, err = tr.Reallocate(p, l, 16)
	require.NoError(t, err, "call 3 succeeds again")

	tr.Free(p, l.WithSize(16))
	require.NoError(t, tr.Check())
}

func TestTracker_FailAlwaysAndRestore(t *testing.T) {
	tr := newTracker(t)
	l := alloc.Layout{Size: 8, Align: 8}

	tr.FailAlways()
	for range 3 {
		_, err := tr.Allocate(l)
		require.ErrorIs(t, err, alloc.ErrAllocFailed)
	}
	assert.Zero(t, tr.Live())

	tr.Restore()
	p, err := tr.Allocate(l)
	require.NoError(t, err)
	tr.Free(p, l)

	tr.FailOn(1)
	tr.FailOn(0)
	p, err = tr.Allocate(l)
	require.NoError(t, err, "FailOn(0) cancels the schedule")
	tr.Free(p, l)
}

func TestTracker_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	tr, err := New(alloc.Heap, &Options{Meter: mp.Meter("rawvec/track")})
	require.NoError(t, err)

	l := alloc.Layout{Size: 100, Align: 4}
	p, err := tr.Allocate(l)
	require.NoError(t, err)
	assert.Equal(t, int64(100), sumOf(t, reader, "rawvec.alloc.outstanding"))

	tr.FailOn(1)
	_, err = tr.Reallocate(p, l, 200)
	require.Error(t, err)
	assert.Equal(t, int64(1), sumOf(t, reader, "rawvec.alloc.failures"))

	tr.Free(p, l)
	assert.Equal(t, int64(0), sumOf(t, reader, "rawvec.alloc.outstanding"))
	assert.Equal(t, int64(3), sumOf(t, reader, "rawvec.alloc.calls"))
}
