package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/bounds"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/visibility"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/browserdesk/tests/helpers/testutil"
)

const showDelay = 150 * time.Millisecond

type fixture struct {
	bridge *Bridge
	vis    *visibility.Controller
	rec    *testutil.NotificationRecorder
	clock  *testutil.FakeScheduler
}

func newFixture(t *testing.T, tombstones int) *fixture {
	t.Helper()
	rec := &testutil.NotificationRecorder{}
	clock := testutil.NewFakeScheduler()
	vis := visibility.NewController(rec, visibility.WithScheduler(clock.AfterFunc))
	b, err := NewBridge(Config{ShowDelay: showDelay, Tombstones: tombstones}, vis, rec, nil)
	require.NoError(t, err)
	return &fixture{bridge: b, vis: vis, rec: rec, clock: clock}
}

func sessionsOf(ns []types.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.SessionID)
	}
	return out
}

func TestNewBridgeRequiresCollaborators(t *testing.T) {
	_, err := NewBridge(Config{}, nil, &testutil.NotificationRecorder{}, nil)
	assert.Error(t, err)
}

func TestSwitchWithoutDeleteEmitsOneSwitch(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.rec.Reset()

	f.bridge.SwitchedTo("B")
	f.bridge.SwitchedTo("B")

	assert.Equal(t, []string{"B"}, sessionsOf(f.rec.OfType(types.NotifySessionSwitched)))
	assert.Empty(t, f.rec.OfType(types.NotifySessionDeleted))
	assert.Equal(t, "B", f.bridge.Active())
}

func TestCreatedOncePerSession(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Created("A")
	f.bridge.SwitchedTo("B")
	f.bridge.SwitchedTo("A")

	assert.Equal(t, []string{"A", "B"}, sessionsOf(f.rec.OfType(types.NotifySessionCreated)))
	assert.Equal(t, []string{"A", "B", "A"}, sessionsOf(f.rec.OfType(types.NotifySessionSwitched)))
}

func TestMountUnmountAddsOneReasonAndOneDelete(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Mounted("main", "A", &types.RectF{Width: 800, Height: 600})
	f.bridge.Unmounted("main")
	f.bridge.Unmounted("main")

	assert.Equal(t, []string{visibility.ReasonContainerUnmounted}, f.vis.Reasons("A"))
	assert.Equal(t, []string{"A"}, sessionsOf(f.rec.OfType(types.NotifySessionDeleted)))
	assert.Equal(t, []bool{false}, f.rec.Visibility("A"))
	assert.Equal(t, "", f.bridge.Active())
}

func TestRemountSameSessionIsSilent(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Mounted("main", "A", &types.RectF{Width: 800, Height: 600})
	f.clock.Advance(showDelay)
	before := f.rec.Len()

	f.bridge.Mounted("main", "A", nil)
	f.bridge.Mounted("main", "A", &types.RectF{Width: 800, Height: 600})
	f.clock.Advance(time.Second)

	assert.Equal(t, before, f.rec.Len())
}

func TestRemountAfterUnmountRestoresView(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Mounted("main", "A", nil)
	f.bridge.Unmounted("main")
	f.rec.Reset()

	f.bridge.Mounted("main", "A", &types.RectF{Width: 640, Height: 480})
	assert.Equal(t, []string{"A"}, sessionsOf(f.rec.OfType(types.NotifySessionCreated)))
	assert.Empty(t, f.vis.Reasons("A"))
	assert.Empty(t, f.rec.Visibility("A"), "show is debounced")

	f.clock.Advance(showDelay)
	assert.Equal(t, []bool{true}, f.rec.Visibility("A"))
	assert.Equal(t, "A", f.bridge.Active())
}

func TestDeletedSessionIsTombstoned(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Deleted("A")
	f.bridge.Deleted("A")
	f.rec.Reset()

	f.bridge.SwitchedTo("A")
	f.bridge.Created("A")
	f.bridge.Mounted("main", "A", nil)
	f.bridge.Hide("A", visibility.ReasonAnimation)

	assert.Zero(t, f.rec.Len())
	assert.Equal(t, 1, f.bridge.Snapshot().Tombstones)
}

func TestDeletedEmitsOnce(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Mounted("main", "A", nil)
	f.bridge.Unmounted("main")
	f.bridge.Deleted("A")

	assert.Len(t, f.rec.OfType(types.NotifySessionDeleted), 1)
}

func TestTombstonesAreBounded(t *testing.T) {
	f := newFixture(t, 2)

	for _, id := range []string{"A", "B", "C"} {
		f.bridge.Created(id)
		f.bridge.Deleted(id)
	}
	assert.Equal(t, 2, f.bridge.Snapshot().Tombstones)

	// A was evicted and may be seen again
	f.rec.Reset()
	f.bridge.SwitchedTo("A")
	assert.Len(t, f.rec.OfType(types.NotifySessionSwitched), 1)
}

func TestBoundsOnMountAndResize(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.rec.Reset()

	f.bridge.Mounted("main", "A", &types.RectF{X: 10.6, Y: 0, Width: 800.2, Height: 600.9})
	f.bridge.Resized("main", types.RectF{X: 10.6, Y: 0, Width: 800.4, Height: 600.9})
	f.bridge.Resized("main", types.RectF{X: 11, Y: 0, Width: 900, Height: 600})

	got := f.rec.OfType(types.NotifySetBounds)
	require.Len(t, got, 2)
	assert.Equal(t, types.Rectangle{X: 11, Y: 0, Width: 800, Height: 601}, *got[0].Bounds)
	assert.Equal(t, types.Rectangle{X: 11, Y: 0, Width: 900, Height: 600}, *got[1].Bounds)
}

func TestBoundsFallbackBeforeMeasurement(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")

	got := f.rec.OfType(types.NotifySetBounds)
	require.Len(t, got, 1)
	assert.Equal(t, bounds.DefaultFallback, *got[0].Bounds)
}

func TestBoundsSuppressedWhileHiddenOrOverlaid(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Mounted("main", "A", &types.RectF{Width: 800, Height: 600})
	f.rec.Reset()

	f.bridge.Hide("A", visibility.ReasonAnimation)
	f.bridge.Resized("main", types.RectF{Width: 700, Height: 600})
	assert.Empty(t, f.rec.OfType(types.NotifySetBounds))

	f.bridge.Show("A", visibility.ReasonAnimation)
	got := f.rec.OfType(types.NotifySetBounds)
	require.Len(t, got, 1)
	assert.Equal(t, 700, got[0].Bounds.Width)

	f.rec.Reset()
	f.bridge.SetOverlay(true)
	f.bridge.Resized("main", types.RectF{Width: 600, Height: 600})
	assert.Empty(t, f.rec.OfType(types.NotifySetBounds))
}

func TestBoundsOnlyForActiveSession(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Mounted("side", "B", &types.RectF{Width: 300, Height: 300})
	f.rec.Reset()

	f.bridge.Resized("side", types.RectF{Width: 400, Height: 300})
	assert.Empty(t, f.rec.OfType(types.NotifySetBounds))

	f.bridge.SwitchedTo("B")
	got := f.rec.OfType(types.NotifySetBounds)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].SessionID)
	assert.Equal(t, 400, got[0].Bounds.Width)
}

func TestOverlayHidesAndDebouncesShow(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.SetOverlay(true)
	f.bridge.SetOverlay(true)
	assert.Equal(t, []bool{false}, f.rec.Visibility("A"))

	f.bridge.SetOverlay(false)
	f.clock.Advance(showDelay - time.Millisecond)
	assert.Equal(t, []bool{false}, f.rec.Visibility("A"))

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, []bool{false, true}, f.rec.Visibility("A"))
}

func TestOverlayFollowsActiveSession(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.SetOverlay(true)
	f.bridge.SwitchedTo("B")

	assert.True(t, f.vis.IsHidden("B"))
	assert.False(t, f.vis.IsHidden("A"))

	f.bridge.SetOverlay(false)
	f.clock.Advance(showDelay)
	assert.Equal(t, []bool{false, true}, f.rec.Visibility("B"))
}

func TestHideDuringPendingShowCancels(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Hide("A", visibility.ReasonAnimation)
	f.bridge.Show("A", visibility.ReasonAnimation)
	f.clock.Advance(showDelay / 2)
	f.bridge.Hide("A", visibility.ReasonSplitViewClosed)
	f.clock.Advance(time.Second)

	assert.Equal(t, []bool{false, false}, f.rec.Visibility("A"))
}

func TestNewSessionShownAfterOtherHidden(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Hide("A", visibility.ReasonAnimation)
	f.bridge.Created("B")
	assert.Empty(t, f.rec.Visibility("B"), "show is debounced")

	f.clock.Advance(showDelay)
	assert.Equal(t, []bool{true}, f.rec.Visibility("B"))
	assert.Equal(t, []bool{false}, f.rec.Visibility("A"))
	assert.Equal(t, visibility.StateVisible, f.vis.State("B"))
}

func TestShowOfAbsentReasonKeepsPendingDeadline(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Hide("A", visibility.ReasonAnimation)
	f.bridge.Show("A", visibility.ReasonAnimation)
	f.clock.Advance(100 * time.Millisecond)

	f.bridge.Show("A", "never-added")
	f.clock.Advance(showDelay - 100*time.Millisecond)

	assert.Equal(t, []bool{false, true}, f.rec.Visibility("A"))
}

func TestHideShowIgnoredWithoutView(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Hide("X", visibility.ReasonAnimation)
	f.bridge.Show("X", visibility.ReasonAnimation)
	f.clock.Advance(time.Second)

	assert.Zero(t, f.rec.Len())
	assert.Nil(t, f.vis.Reasons("X"))
	assert.Equal(t, visibility.StateUnknown, f.vis.State("X"))
	assert.Empty(t, f.bridge.Snapshot().Sessions)
}

func TestShowKeepsViewHiddenWhileOtherReasons(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Hide("A", visibility.ReasonAnimation)
	f.bridge.Hide("A", visibility.ReasonSplitViewClosed)
	f.bridge.Show("A", visibility.ReasonAnimation)
	f.clock.Advance(time.Second)

	assert.True(t, f.vis.IsHidden("A"))
	assert.Equal(t, []bool{false}, f.rec.Visibility("A"))
}

func TestContainerReusedForOtherSession(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("A")
	f.bridge.Mounted("main", "A", nil)
	f.bridge.Mounted("main", "B", nil)

	assert.Equal(t, []string{"A"}, sessionsOf(f.rec.OfType(types.NotifySessionDeleted)))
	assert.Equal(t, map[string]string{"main": "B"}, f.bridge.Snapshot().Containers)
	assert.Equal(t, "B", f.bridge.Active())
}

func TestEmptySessionIDIgnored(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("")
	f.bridge.SwitchedTo("")
	f.bridge.Deleted("")
	f.bridge.Mounted("main", "", nil)

	assert.Zero(t, f.rec.Len())
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, 0)

	f.bridge.Created("B")
	f.bridge.Created("A")
	f.bridge.Mounted("main", "A", nil)
	f.bridge.SetOverlay(true)

	snap := f.bridge.Snapshot()
	assert.Equal(t, "A", snap.Active)
	assert.True(t, snap.Overlay)
	assert.Equal(t, []string{"A", "B"}, snap.Sessions)
	assert.Equal(t, map[string]string{"main": "A"}, snap.Containers)
}
