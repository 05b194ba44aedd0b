package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/spotgrab/internal/services"
	"github.com/desertthunder/spotgrab/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func main() {
	logger := shared.NewLogger(nil)
	logger.Debug(shared.VersionString())

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})
	defer runner.Close()

	gateway := services.NewGatewayService(services.GatewayOpts{
		BaseURL:      config.Gateway.BaseURL,
		ClientID:     config.Gateway.ClientID,
		ClientSecret: config.Gateway.ClientSecret,
		RedirectURI:  config.Gateway.RedirectURI,
		RateLimit:    config.Gateway.RateLimit,
		Logger:       logger,
		Authorize: func(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
			return runner.doOAuth(ctx, oauthConfig, "authorization")
		},
	})
	runner.SetSessions(gateway)

	app := &cli.Command{
		Name:     "spotgrab",
		Usage:    "Download Spotify tracks through a playback gateway",
		Version:  shared.Version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
