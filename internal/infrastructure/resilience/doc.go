/*
Package resilience provides circuit breaker implementation for graceful degradation.

# Overview

Calls to the view host cross a process boundary. When the host is down the
breaker fails fast instead of stacking up timeouts behind every navigation.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Consecutive-failure threshold and cooldown
- Expected negative answers can be excluded from failure counting
- State change callbacks for logging
- Injectable clock

# Usage

	breaker := resilience.New("view-host", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         10 * time.Second,
		Countable: func(err error) bool {
			return !errors.Is(err, tab.ErrNotFound)
		},
	})

	resp, err := resilience.Do(breaker, func() (*resty.Response, error) {
		return req.Get(url)
	})

# States

- Closed: Normal operation, requests pass through
- Open: Service unavailable, requests fail immediately
- Half-Open: Testing if service recovered, limited requests allowed

# Pattern

The circuit breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
