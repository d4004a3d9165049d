// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

/*
Package supervisor provides process supervision for Huddle using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services in the application. It provides
Erlang/OTP-style supervision with automatic restart, failure isolation,
and graceful shutdown.

# Overview

The supervisor tree organizes services into two layers for failure
isolation:

	RootSupervisor ("huddle")
	├── RealtimeSupervisor ("realtime-layer")
	│   └── HubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that a crash in the realtime hub does not take
down the HTTP server, and vice versa. Each layer restarts its own
services independently; only repeated failures bubble up to the root.

Supervisor events (service failures, backoff, resume) are logged through
sutureslog, which bridges suture's event stream onto the application's
structured logger.
*/
package supervisor
