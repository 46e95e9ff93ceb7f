/*
Package resilience provides the circuit breaker used by the driver client.

A client talking to a desktop driver should stop hammering a server that
keeps failing: the breaker opens after a configurable failure streak,
rejects calls with ErrCircuitOpen until Timeout passes, then admits
MaxRequests trial calls before closing again.

IsSuccessful lets callers decide which errors indicate an unhealthy
server. WebDriver errors such as "no such element" are answers, not
outages, and should not trip the breaker.

# Usage

	breaker := resilience.New("deskdriver", resilience.Settings{
		Timeout: 10 * time.Second,
		IsSuccessful: func(err error) bool {
			return err == nil || client.IsCode(err, client.CodeNoSuchElement)
		},
	})

	id, err := resilience.Call(ctx, breaker, func(ctx context.Context) (string, error) {
		return c.createSession(ctx, caps)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open
*/
package resilience
