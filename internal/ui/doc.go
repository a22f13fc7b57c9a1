// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI runs one generation cycle at a time through three views:
//  1. [FormView] : Describe the music and pick a song count (huh form)
//  2. [GenerateView] : Spinner with the latest progress message from the engine
//  3. [ResultView] : The generated songs and playlist link, or an explanation of the failure
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Engine], so the view stays responsive while external calls are in flight.
//
// From the result view, r starts over with a fresh form and q quits.
package ui
