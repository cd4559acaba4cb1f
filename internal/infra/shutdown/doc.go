// Package shutdown releases process resources in order on exit.
//
// Hooks run once, newest first, under a shared deadline, whether the
// command finished normally or the user pressed Ctrl-C:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown("token store", func(context.Context) error { return store.Close() })
//	ctx, stop := shutdown.NotifyContext(context.Background())
//	defer stop()
//	defer h.Shutdown()
package shutdown
