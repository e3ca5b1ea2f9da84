// Package fetch provides the Fetcher implementations used by the resolution Coordinator.
//
// A locator may carry an expected digest as URL fragment, e.g.
//
//	https://fonts.example.com/inter.ttf#sha256:9f86d08...
//
// in which case the fetched content is verified against it before being stored. The
// fragment is never sent to the server.
package fetch
