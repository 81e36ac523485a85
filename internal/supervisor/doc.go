// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

/*
Package supervisor runs the daemon's long-running services under a suture v4
supervisor tree.

# Layers

	temimi-realtime
	├── realtime-layer
	│   ├── realtime-reconciler   single consumer of socket events
	│   └── realtime-reconnect    (if reconnect.enabled)
	└── api-layer                 (if status.enabled)
	    ├── status-stream-hub
	    ├── status-relay
	    └── status-http

A service that returns an error is restarted by its layer. Repeated failures
past FailureThreshold put the layer into FailureBackoff. Supervisor events are
logged through sutureslog into the shared zerolog writer.

# Usage

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	if err != nil {
		return err
	}
	tree.AddRealtimeService(services.NewReconcilerService(rec))
	tree.AddAPIService(services.NewStatusServerService(srv, "127.0.0.1:7071", 10*time.Second))
	err = tree.Serve(ctx)

Cancelling ctx stops every service. UnstoppedServiceReport lists those that
missed ShutdownTimeout.
*/
package supervisor
