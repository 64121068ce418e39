// Package engine coordinates one chat session with the agent.
//
// The engine owns the conversation (entries, reasoning, findings, selection),
// picks the transport (backend session API first, live channel as a one-way
// fallback), reconciles backend session ids, and persists the whole state as
// a versioned bundle through a store.Store.
//
// Concurrency:
//   - One loop goroutine applies every mutation in FIFO order
//   - Backend sends run on a single worker, one call at a time, so replies
//     land in send order
//   - Clear and import advance an epoch; results from older epochs are
//     discarded instead of resurrecting a wiped session
//
// Example Usage:
//
//	e := engine.New(st,
//	    engine.WithBackend(backendClient),
//	    engine.WithLive(engine.NewLiveFactory(endpoint)),
//	    engine.WithConfirmer(prompter),
//	)
//	if err := e.Start(ctx); err != nil {
//	    return err
//	}
//	defer e.Close(ctx)
//	err := e.SendMessage(ctx, "scan the subnet")
package engine
