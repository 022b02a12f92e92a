/*
Package resilience provides a circuit breaker for guarding persistence calls.

The desktop keeps running when its SQLite store is locked or the disk is
full: writes of app hints go through a Breaker, and after FailureThreshold
consecutive failures they are rejected with ErrOpen for Cooldown instead of
blocking every state change on a failing store.

	breaker := resilience.New("hints", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		return st.PutState(ctx, appID, state)
	})

# States

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[probes ok]-> Closed
	                                              |
	                                          [failure]
	                                              v
	                                             Open
*/
package resilience
