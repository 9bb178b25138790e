// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

/*
Package supervisor provides process supervision for Firetail using suture v4.

Every long-running component runs under a hierarchical supervisor tree with
automatic restart, failure isolation and graceful shutdown:

	RootSupervisor ("firetail")
	├── IngestSupervisor ("ingest-layer")
	│   └── killmail.Listener
	├── MessagingSupervisor ("messaging-layer")
	│   └── websocket.Hub
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService

The listener and the hub implement suture.Service themselves. The HTTP
server is adapted by services.HTTPServerService.

Supervisor events (start, stop, failure, backoff) are logged through
sutureslog into the zerolog-backed slog handler from internal/logging.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddIngestService(listener)
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	err = tree.Serve(ctx) // blocks until ctx is canceled
*/
package supervisor
