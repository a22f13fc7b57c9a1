package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Config and credentials
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Spotify session
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Remote services
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Generation cycle
	ErrAuthentication      = fmt.Errorf("no valid music service session")
	ErrMalformedCompletion = fmt.Errorf("malformed completion")
	ErrTrackNotFound       = fmt.Errorf("track not found")
	ErrPlaylistCreation    = fmt.Errorf("playlist creation failed")

	// User input
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// StatusError carries the HTTP status of a failed remote call.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string { return e.Err.Error() }

func (e *StatusError) Unwrap() error { return e.Err }

// Temporary reports whether the same request may succeed later (rate limiting or a server fault).
func (e *StatusError) Temporary() bool {
	return e.Status == 429 || e.Status >= 500
}
