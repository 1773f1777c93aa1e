// Package reply provides the response finalization pipeline.
//
// A Reply mediates between whatever a handler produces and exactly one
// completed HTTP response. Send accepts a plain value, an error, a
// *fault.Fault, a Future, an io.Reader or nil, and deterministically turns
// it into a terminal write, running the shared onSend hook chain first.
//
// # Finalization flow
//
//	handler result -> classification -> encoding -> deferred scheduling
//	              -> onSend hooks -> terminal write (exactly once)
//
// Futures are resolved in a loop until a concrete value is produced, so a
// future resolving to another future, an error or a plain value is handled
// uniformly. Streams and raw pre-typed payloads bypass the hook chain and
// go straight to the terminal write.
//
// # Completion guarantees
//
// A Reply completes at most once. The second Send (or Redirect) on the
// same Reply fails with ErrAlreadySent and is logged: a double send is a
// bug in the calling handler, not a runtime condition to recover from.
// Errors at any stage are normalized into the canonical error body and
// re-enter the same terminal-write path; nothing ever bypasses the
// completion guard or escapes the Reply boundary.
package reply
