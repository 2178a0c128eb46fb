/*
Package browser exposes the embedded browser view to agents as tools.

# Tools

  - browser.navigate: Load a URL (scheme-less input gets https://)
  - browser.refresh: Reload the current page
  - browser.back: Go back one history entry
  - browser.forward: Go forward one history entry

Every tool takes an optional view_id. When it is missing the view is resolved
from the calling session (or task) in the execution context.

# Results

Tool results are always plain data:

  - success: Data carries ok, no_history and a human-readable message. A
    missing history entry is a successful call with no_history=true.
  - view_not_found: the view id is stale; Data carries view_id and op
  - invalid_url: the URL could not be normalised
  - navigation_failed: the host rejected or failed the operation

# Usage Example

	result, _ := registry.Execute(ctx, "browser.navigate", map[string]interface{}{
		"url": "example.com",
	}, &types.Context{SessionID: &sessionID})
*/
package browser
