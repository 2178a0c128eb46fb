// Package agent keeps one agent per task.
//
// Construction is lazy and deduplicated: concurrent GetOrCreate calls for a
// task wait on a single Factory call. Handles live until Remove or Clear; there
// is no idle eviction, so a task whose deletion is never reported keeps its
// agent until shutdown.
package agent
