// Package navigation executes navigate, refresh, back and forward commands on
// native views.
//
// Every command resolves the view id through tab.Service first. An unknown id
// fails with *ViewNotFoundError; asking for back or forward without history
// returns an Outcome with NoHistory set and a nil error. Successful commands
// touch the view's last-activity timestamp before acting.
package navigation
