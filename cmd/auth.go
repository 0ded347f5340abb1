package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/server"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultRedirectURI = "http://127.0.0.1:3000/callback"

// AuthSpotify signs in with Spotify and prints a session token.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	svc := services.NewSpotifyService(creds, r.serviceOptions()...)
	return r.signIn(ctx, models.Spotify, svc, creds, cmd.Duration("timeout"))
}

// AuthYouTube signs in with Google and prints a session token for YouTube Music.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Google
	svc := services.NewYouTubeService(creds, r.serviceOptions()...)
	return r.signIn(ctx, models.YouTube, svc, creds, cmd.Duration("timeout"))
}

func (r *Runner) serviceOptions() []services.Option {
	return []services.Option{
		services.WithHTTPClient(r.httpClient),
		services.WithTimeout(r.config.Assembler.Timeout),
	}
}

// signIn runs the authorization code flow against a local callback server.
func (r *Runner) signIn(ctx context.Context, platform models.Platform, auth services.Authenticator, creds shared.OAuthClientConfig, timeout time.Duration) error {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: %s client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials, platform.Label())
	}

	callback, err := callbackConfig(creds.RedirectURI)
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	oauthHandler := server.NewOAuthHandler(state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	srvCtx, stop := context.WithCancel(ctx)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.New(callback, router, r.logger).Run(srvCtx)
	}()

	authURL := auth.AuthURL(state)
	r.writePlain("→ Opening browser for %s sign-in...\n", platform.Label())
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return fmt.Errorf("callback server error: %w", err)
	case <-timer.C:
		return fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	stop()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	token, expires, err := r.exchange(ctx, platform, auth, result.Code)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Signed in to %s", platform.Label())
	r.writePlain("Session token (expires %s):\n\n%s\n\n", expires.Format(time.RFC3339), token)
	r.writePlain("Use it with: export SETLIST_SESSION=<token>\n")
	return nil
}

// exchange trades the authorization code for an access token and signs a session carrying it.
func (r *Runner) exchange(ctx context.Context, platform models.Platform, auth services.Authenticator, code string) (string, time.Time, error) {
	if err := auth.Authenticate(ctx, map[string]string{"auth_code": code}); err != nil {
		return "", time.Time{}, err
	}

	email, err := auth.UserEmail(ctx)
	if err != nil {
		r.logger.Warn("could not look up account email, session will be rate limited as anonymous", "error", err)
	}

	token, expires, err := r.sessions().Sign(models.Session{
		AccessToken: auth.Token().AccessToken,
		Provider:    platform.Provider(),
		Email:       email,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return token, expires, nil
}

// callbackConfig derives the local listen address from the OAuth redirect URI.
func callbackConfig(redirectURI string) (shared.ServerConfig, error) {
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	u, err := url.Parse(redirectURI)
	if err != nil {
		return shared.ServerConfig{}, fmt.Errorf("%w: redirect_uri: %v", shared.ErrInvalidConfig, err)
	}
	if u.Path != "/callback" {
		return shared.ServerConfig{}, fmt.Errorf("%w: redirect_uri must end in /callback, got %q", shared.ErrInvalidConfig, redirectURI)
	}

	port := 80
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return shared.ServerConfig{}, fmt.Errorf("%w: redirect_uri port %q", shared.ErrInvalidConfig, p)
		}
	}

	return shared.ServerConfig{
		Host:         u.Hostname(),
		Port:         port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}, nil
}
