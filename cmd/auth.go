package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/desertthunder/playgen/internal/server"
	"github.com/desertthunder/playgen/internal/services"
	"github.com/desertthunder/playgen/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and saves the exchanged tokens to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	spotify := r.config.Credentials.Spotify
	if spotify.ClientID == "" || spotify.ClientSecret == "" {
		return fmt.Errorf("%w: set %s and %s or add them to %s",
			shared.ErrMissingCredentials, shared.EnvSpotifyClientID, shared.EnvSpotifyClientSecret, r.configPath)
	}

	var spotifyService services.OAuthService
	if r.spotify == nil {
		svc, err := r.newSpotifyService(ctx)
		if err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
		spotifyService = svc
	} else if svc, ok := r.spotify.(services.OAuthService); ok {
		spotifyService = svc
	} else {
		return fmt.Errorf("%w: %s does not support authorization", shared.ErrServiceUnavailable, r.spotify.Name())
	}

	token, err := r.doOAuth(ctx, spotifyService)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	if err := spotifyService.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	if err := r.writePlainln("✓ Authorization successful"); err != nil {
		return err
	}
	if err := r.writePlain("✓ Tokens saved to %s\n", r.configPath); err != nil {
		return err
	}

	if user, err := spotifyService.CurrentUser(ctx); err == nil {
		if err := r.writePlain("Logged in as %s\n", user); err != nil {
			return err
		}
	} else {
		r.logger.Warn("could not fetch current user", "error", err)
	}

	return r.writePlain("\nYou can now use: playgen generate\n")
}

// AuthStatus prints the account the saved tokens belong to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	user, err := r.spotify.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrTokenExpired) {
			_ = r.writePlain("✗ Not logged in. Run 'playgen auth login'.\n")
			return fmt.Errorf("%w: %w", shared.ErrAuthentication, err)
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	return r.writePlain("✓ Logged in as %s\n", user)
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewRouter()
	router.Use(server.Recover(r.logger))
	router.Handler(oauthHandler)

	serverAddr := r.config.Server.Addr()
	listener, err := net.Listen("tcp", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", serverAddr, err)
	}

	serverCtx, stop := context.WithCancel(ctx)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", serverAddr)
		serverErrors <- server.Serve(serverCtx, listener, router)
	}()

	_ = r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		_ = r.writePlainln("⚠ Could not open browser automatically.")
		_ = r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	_ = r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		if err == nil {
			err = errors.New("server stopped")
		}
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: %w after %v", shared.ErrTimeout, server.ErrCallbackTimeout, authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
