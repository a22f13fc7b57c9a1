// Package tasks turns a free-text music request into a playlist, with real-time progress reporting.
//
// # Generation Cycle
//
// [Engine.Run] drives one cycle through the [Cycle] state machine:
//
//	Idle → AwaitingCompletion → Resolving → Materializing → Done
//
// Any step may move the cycle to Failed instead; Done and Failed are terminal.
//
//  1. Authenticate : [services.Catalog.CurrentUser] must succeed, otherwise the cycle fails with
//     [shared.ErrAuthentication] before anything else happens
//  2. Complete : [Format] builds the chat request (system role, the user's description, a forced
//     create_playlist tool call) and [Interpret] validates the answer against the same JSON Schema
//  3. Resolve : [Resolver] searches the catalog once per song, in order, keeping the top hit
//  4. Materialize : [Materializer] creates a private playlist and adds every track in one batch
//
// # Failures
//
// Failures are typed and unwrap to sentinels in the shared package:
//   - [*MalformedCompletionError] : no tool call, ambiguous calls, or arguments that violate the schema
//   - [*TrackNotFoundError] : a song had zero hits; no playlist is created
//   - [*PlaylistCreationError] : the create or add step failed; a playlist created before the add step failed is reported
//
// [Explain] renders any of these for display.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains the cycle ID, phase, step counters, messages, and optional data for advanced
// UI rendering. Updates use select with default to prevent blocking.
//
// Surfaces that need a working indicator pass a [Busy] implementation; the engine acquires it around every
// blocking external call.
package tasks
