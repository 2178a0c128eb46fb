// Package visibility decides whether a session's native view may be shown.
//
// Any number of independent UI regions (settings overlay, split view, running
// animations, an unmounted container) can each hold a hide reason for a
// session. The view is hidden if and only if the session's reason set is
// non-empty; reasons are set members, so adding one twice or removing an
// absent one changes nothing.
//
// Hiding is synchronous: the first reason emits session.setVisibility
// {isVisible:false} straight away and cancels any pending show. Showing is
// debounced so CSS transitions can settle before the always-on-top native
// layer appears:
//
//	Visible --add--> Hidden --RequestShow(d)--> PendingShow --timer--> Visible
//	                   ^                            |
//	                   +------------add-------------+
//
// Only the most recent RequestShow can fire. Each arm or cancel bumps a
// per-session generation, so a timer that already fired before Stop took
// effect finds a stale generation and does nothing.
package visibility
