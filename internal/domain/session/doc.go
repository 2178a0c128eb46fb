// Package session keeps the host's native views in step with the UI's
// sessions.
//
// The UI reports thread lifecycle (created, switched, deleted), container
// mount/unmount/resize and overlay changes. The bridge turns these into the
// host notifications session.created, session.switched, session.deleted and
// session.setBounds, and drives the visibility controller for
// session.setVisibility.
//
// Components:
//   - Bridge: single-lock state machine over the active session, mounted
//     containers and the overlay flag
//   - Tombstones: bounded LRU of deleted session ids; late events for them are
//     dropped
//
// Rules:
//  1. session.switched fires once per change of active session
//  2. session.created fires once while the host holds no view for the session
//  3. Unmounting a container hides its session (container-unmounted) and
//     releases the view with one session.deleted
//  4. Remounting a container with the same session emits nothing
//  5. Bounds are sent for the active session only when it has a view, no hide
//     reason and no overlay, and only when the rectangle changed
//
// Example Usage:
//
//	vis := visibility.NewController(hub)
//	bridge, err := session.NewBridge(session.Config{ShowDelay: 150 * time.Millisecond}, vis, hub, logger)
//	bridge.Created("sess_01J...")
//	bridge.Mounted("main", "sess_01J...", &types.RectF{Width: 1024, Height: 700})
package session
