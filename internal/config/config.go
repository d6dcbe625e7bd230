// Package config loads client credentials and API settings from a config file
// under $HOME/.fsqsearch. FSQ_* environment variables, optionally read from a
// .env file, take precedence over the file.
package config

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jdevelop/fs4search/fsqapi"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
)

const (
	ClientId          = "client.id"
	ClientRedirectUrl = "client.redirect.url"
	ClientToken       = "client.token"
	ClientSecret      = "client.secret"
	ApiBase           = "api.base"
	ApiVersion        = "api.version"
	ApiTimeout        = "api.timeout"

	DefaultConfigPath = "$HOME/.fsqsearch"
	envPrefix         = "FSQ"
)

type Config struct {
	ClientID    string
	Secret      string
	RedirectURL string
	Token       string
	BaseURL     string
	Version     string
	Timeout     time.Duration

	v *viper.Viper
}

// Load reads the "config" file from the given directories, DefaultConfigPath
// when none are given. A missing config file is not an error.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	if len(paths) == 0 {
		paths = []string{DefaultConfigPath}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(ApiVersion, fsqapi.DefaultVersion)
	v.SetDefault(ApiTimeout, "15s")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		slog.Debug("no config file found, using environment only", "paths", paths)
	}

	timeout, err := time.ParseDuration(v.GetString(ApiTimeout))
	if err != nil {
		return nil, errors.New("api.timeout: " + err.Error())
	}

	return &Config{
		ClientID:    v.GetString(ClientId),
		Secret:      v.GetString(ClientSecret),
		RedirectURL: v.GetString(ClientRedirectUrl),
		Token:       v.GetString(ClientToken),
		BaseURL:     v.GetString(ApiBase),
		Version:     v.GetString(ApiVersion),
		Timeout:     timeout,
		v:           v,
	}, nil
}

// Authenticator prefers a stored user token over userless client
// credentials. It returns nil when neither is configured.
func (c *Config) Authenticator() fsqapi.Authenticator {
	switch {
	case c.Token != "":
		return fsqapi.StaticToken(c.Token)
	case c.ClientID != "" && c.Secret != "":
		return fsqapi.UserlessAuth{ClientID: c.ClientID, ClientSecret: c.Secret}
	}
	return nil
}

func (c *Config) OAuth() *oauth2.Config {
	return fsqapi.OAuthConfig(c.ClientID, c.Secret, c.RedirectURL)
}

// Client builds an API client from the configuration.
func (c *Config) Client(logger *slog.Logger) *fsqapi.Client {
	return fsqapi.NewClient(fsqapi.Config{
		BaseURL:    c.BaseURL,
		Version:    c.Version,
		Auth:       c.Authenticator(),
		HTTPClient: &http.Client{Timeout: c.Timeout},
		Logger:     logger,
	})
}

// SaveToken stores a freshly obtained access token in the config file that
// was loaded.
func (c *Config) SaveToken(token string) error {
	c.Token = token
	c.v.Set(ClientToken, token)
	return c.v.WriteConfig()
}
