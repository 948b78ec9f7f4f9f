// Package server exposes parlance over HTTP: session start, conversation
// summary, persona listing, memory and session history views.
package server
