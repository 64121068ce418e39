/*
Package resilience provides a circuit breaker for remote calls.

The backend session client wraps every HTTP call in a Breaker so a dead
agent service fails fast instead of stalling each send for the full timeout.

# Usage

	breaker := resilience.New("backend", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	reply, err := resilience.Run(breaker, func() (*Reply, error) {
		return call(ctx)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
