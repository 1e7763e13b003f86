// Package server implements the operator live feed.
//
// The feed is a small HTTP server with two routes:
//
//	/ws       WebSocket; every operator event is pushed as one JSON text message
//	/healthz  JSON status: client count, events sent, the most recent event
//
// A newly connected client first receives the most recent event, then every
// event after it. Clients never send anything meaningful; their messages are
// read only to notice disconnects.
//
// Server implements operator.Notifier, so it is combined with the console or
// log notifier through operator.Multi:
//
//	feed := server.New(server.Config{Listen: ":8787"})
//	if err := feed.Start(); err != nil {
//	    return err
//	}
//	defer feed.Shutdown(context.Background())
//	notifier := operator.Multi(operator.LogNotifier{}, feed)
//
// Each write has a 10 second deadline. A client that falls more than 32
// events behind is disconnected so a stalled reader never blocks the agent.
package server
