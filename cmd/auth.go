package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/spotgrab/internal/server"
	"github.com/desertthunder/spotgrab/internal/services"
	"github.com/desertthunder/spotgrab/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin validates a stored credential file and installs it at the
// configured path so future runs pick it up without the --credentials flag.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	filePath := cmd.StringArg("path")
	if filePath == "" {
		return fmt.Errorf("%w: credential file path", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd)

	creds, err := services.ReadStoredCredentials(filePath)
	if err != nil {
		return err
	}
	r.logger.Info("credential file decoded", "username", creds.Username, "shape", creds.Shape, "type", creds.AuthType)

	if cmd.Bool("verify") {
		session, err := r.sessions.Authenticate(ctx, services.CredentialSource{
			Kind: services.StoredFile,
			Path: filePath,
		})
		if err != nil {
			return fmt.Errorf("credential verification failed: %w", err)
		}
		r.writePlain("✓ Gateway accepted credentials for %s\n", session.Username())
		session.Close()
	}

	destPath := config.Credentials.Path
	if destPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		destPath = filepath.Join(homeDir, ".spotgrab", "credentials.json")
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := shared.VerifyAndReadFile(filePath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(destPath, data, 0600); err != nil {
		return fmt.Errorf("failed to save credential file: %w", err)
	}

	r.logger.Infof("credential file saved to %v", destPath)
	r.writePlain("✓ Credentials installed for %s\n", creds.Username)
	r.writePlain("Saved to: %s\n", destPath)
	return nil
}

// AuthInspect decodes a credential file and reports its account and shape
// without printing the secret blob.
func (r *Runner) AuthInspect(ctx context.Context, cmd *cli.Command) error {
	filePath := cmd.StringArg("path")
	if filePath == "" {
		filePath = r.config.Credentials.Path
	}
	if filePath == "" {
		return fmt.Errorf("%w: credential file path", shared.ErrMissingArgument)
	}

	creds, err := services.ReadStoredCredentials(filePath)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"path":       filePath,
			"username":   creds.Username,
			"shape":      creds.Shape,
			"auth_type":  creds.AuthType,
			"blob_bytes": len(creds.AuthData),
		}, true)
	}

	r.writePlainHeader("Stored Credentials")
	r.writePlain("Path:     %s\n", filePath)
	r.writePlain("Username: %s\n", creds.Username)
	r.writePlain("Shape:    %s\n", creds.Shape)
	r.writePlain("Type:     %s\n", creds.AuthType)
	r.writePlain("Blob:     %d bytes\n", len(creds.AuthData))
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthConfig *oauth2.Config, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: authorization cancelled", shared.ErrTimeout)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
