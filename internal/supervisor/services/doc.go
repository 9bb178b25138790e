// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

/*
Package services provides suture.Service wrappers for Firetail components
whose lifecycle does not already follow suture's context-aware Serve pattern.

The killmail listener and the websocket hub implement Serve directly. The
HTTP server does not: http.Server blocks in ListenAndServe and stops through
Shutdown, so HTTPServerService translates between the two.

	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
*/
package services
