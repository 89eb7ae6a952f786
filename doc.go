/*
Package ember implements an embeddable HTTP/1.1 server: a connection-per-
socket server that parses requests by hand, dispatches them through a
composable URL resolver, and streams responses back with correct framing
(Content-Length, chunked, gzip).

Resolver

A `Resolver` holds an ordered collection of `Mapping`s. Each `Mapping`
pairs a `Hook` — a match specification over scheme, port, domain and path
— with a `Handler`. Hooks nest: a request matched by an outer hook has its
matched domain/path suffix pushed onto the URL's parent stacks before the
inner handler runs, so the inner handler only ever sees what it owns.

	resolver := ember.NewResolver()
	resolver.Add(ember.NewHook(ember.Hook{HasPath: true, Path: "/users"}), func(req *ember.Request) *ember.Response {
		return ember.Text("ok")
	})

WebSocket

A handler upgrades a connection to WebSocket by returning the response
from `ember.Upgrade`, which the connection loop sends as the 101
handshake and then hands to the handler as a `*WebSocket` wired to the
raw socket. Frame parsing, masking and reassembly follow RFC 6455
directly; there is no third-party WebSocket dependency in the wire path.
*/
package ember
