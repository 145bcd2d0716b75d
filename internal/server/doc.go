// Package server hosts the Fiber HTTP service, request middleware chain, and
// the upstream plumbing (shared http.Client, hop-by-hop header rules, origin
// resolver) that the cache strategies fetch through. The surface mirrors a
// service worker's position in the request path: every request a controlled
// client issues passes through the catch-all route here before any strategy
// runs. Keep exports narrow and accept explicit dependencies so proxy and
// lifecycle code can be tested against fakes.
package server
