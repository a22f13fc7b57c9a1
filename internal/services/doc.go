// Package services adapts the external collaborators of a generation cycle.
//
// # Catalog
//
// [Catalog] captures the four capabilities the generator needs from a music service: the current user,
// free-text track search, playlist creation and batch track addition.
//
// [SpotifyService] implements [Catalog] and [OAuthService] on top of github.com/zmb3/spotify/v2.
// The HTTP client is built from an [oauth2.Config] token source, so expired access tokens are refreshed
// automatically; refreshed tokens are reported through the callback set with [SpotifyService.SetTokenRefreshCallback]
// so callers can persist them.
//
// # Completion
//
// [CompletionService] implements [Completer] with github.com/sashabaranov/go-openai pointed at any
// OpenAI-compatible endpoint (Groq by default). It fills in the configured model and bounds each request
// with a timeout. Interpreting the response is left to the tasks package.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token configured
//   - [shared.ErrTokenExpired] : token rejected or refresh failed, reauthorization needed
//   - [shared.ErrAuthFailed] : credentials rejected by the completion API, or catalog access forbidden
//   - [shared.ErrTimeout] : completion request exceeded its deadline
//   - [shared.ErrAPIRequest] : any other HTTP failure
package services
