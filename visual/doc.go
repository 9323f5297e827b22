// Package visual turns an asynchronous computation into an observable state
// machine.
//
// A Handle wraps a Factory and walks through
//
//	Idle -> Running -> Succeeded | Failed | Interrupted
//
// every time it is run. Renderers subscribe to a handle and are told about each
// transition synchronously, in order, from inside the transition itself. They
// read the current State at any time without locking.
//
// Every run takes a fresh run token. A completion that arrives after its token
// was invalidated by Reset is dropped: it neither changes the state nor reaches
// the subscribers, so an abandoned run can never overwrite a newer one.
//
// Usage:
//
//	h := visual.New("weatherAPI", func() visual.Computation {
//		return func(ctx context.Context) (result.Result, error) {
//			return fetchTemperature(ctx)
//		}
//	})
//	unsubscribe := h.Subscribe(func(s visual.State) { render(s) })
//	defer unsubscribe()
//
//	value, err := h.Run(ctx).Await(ctx)
package visual
