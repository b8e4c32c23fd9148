// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package app wires the nimbusc CLI: flag/config parsing, manifest source
// resolution and the pkg/compiler entry points.
package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

// nimbuscHomeDir is the default config/cache home directory name.
const nimbuscHomeDir = ".nimbusc"

// configEnvVar names the environment variable that points at a config file,
// read before flag defaults are bound.
const configEnvVar = "NIMBUSC_CONFIG"

// Credential is one entry of the optional credentials list in the config
// file, keyed by host.
type Credential struct {
	Host       string `mapstructure:"host"`
	Username   string `mapstructure:"username"`
	OAuthToken string `mapstructure:"oauthToken"`
}

// Options collects every flag/config value the nimbusc CLI accepts. Each
// mapstructure tag matches the flag name it is bound to in AddFlags.
type Options struct {
	ManifestPath    string `mapstructure:"manifest"`
	DestinationPath string `mapstructure:"destination"`

	Concurrency              int  `mapstructure:"concurrency"`
	LongCompilationThreshold int  `mapstructure:"long-compilation-threshold-ms"`
	FailOnWarnings           bool `mapstructure:"fail-on-warnings"`

	CacheHomeDir string `mapstructure:"cache-home"`

	GhOAuthToken  string            `mapstructure:"github-oauth-token"`
	GhOAuthTokens map[string]string `mapstructure:"github-oauth-token-map"`
	Credentials   []Credential      `mapstructure:"credentials"`

	ConfigFile string

	vip *viper.Viper
}

// NewOptions returns an Options with its backing viper instance created,
// ready for AddFlags.
func NewOptions() *Options {
	return &Options{vip: viper.New()}
}

// Configure reads an optional config file, then binds flags (so
// flag-derived values override the config file), then logs the merged
// credentials. The merged map itself is rebuilt where it is used.
func (o *Options) Configure(cmd *cobra.Command) error {
	if err := o.configureConfigFile(); err != nil {
		return err
	}
	if err := o.configureFlags(cmd); err != nil {
		return err
	}
	o.gatherCredentials()
	return nil
}

func (o *Options) configureConfigFile() error {
	path := o.ConfigFile
	if path == "" {
		path = os.Getenv(configEnvVar)
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			candidate := filepath.Join(home, nimbuscHomeDir, "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	if path == "" {
		return nil
	}

	o.vip.SetConfigFile(path)
	if err := o.vip.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

func (o *Options) configureFlags(cmd *cobra.Command) error {
	if err := o.vip.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return o.vip.Unmarshal(o, func(c *mapstructure.DecoderConfig) {
		c.TagName = "mapstructure"
	})
}

// gatherCredentials merges the three credential sources in precedence
// order, later overriding earlier: config-file Credentials, then
// --github-oauth-token-map, then --github-oauth-token (applied to
// github.com). A caller with nothing configured gets unauthenticated
// github.com access.
func (o *Options) gatherCredentials() map[string]string {
	tokens := map[string]string{}
	for _, c := range o.Credentials {
		if c.Host != "" && c.OAuthToken != "" {
			tokens[c.Host] = c.OAuthToken
		}
	}
	for host, token := range o.GhOAuthTokens {
		if token != "" {
			tokens[host] = token
		}
	}
	if o.GhOAuthToken != "" {
		tokens["github.com"] = o.GhOAuthToken
	}
	for host, token := range tokens {
		klog.V(4).Infof("credential configured: %s", splitHostToken(host, token))
	}
	return tokens
}

// AddFlags registers every nimbusc flag on cmd; Configure binds them to
// viper.
func (o *Options) AddFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&o.ManifestPath, "manifest", "", "path to the compilation manifest (YAML)")
	flags.StringVar(&o.DestinationPath, "destination", "", "directory compiled artifacts are written to")
	flags.IntVar(&o.Concurrency, "concurrency", 0, "maximum concurrently running workers (defaults to max(GOMAXPROCS,2))")
	flags.IntVar(&o.LongCompilationThreshold, "long-compilation-threshold-ms", 5000, "milliseconds a worker may run before it is reported as long-running")
	flags.BoolVar(&o.FailOnWarnings, "fail-on-warnings", false, "exit non-zero if any warnings were recorded during compilation")
	flags.StringVar(&o.GhOAuthToken, "github-oauth-token", "", "GitHub OAuth token used for github.com manifest sources")
	flags.StringToStringVar(&o.GhOAuthTokens, "github-oauth-token-map", nil, "per-host GitHub OAuth tokens, host=token,...")
	flags.StringVar(&o.CacheHomeDir, "cache-home", "", "directory manifest sources are cloned/cached into (defaults to ~/.nimbusc/cache)")
	flags.StringVar(&o.ConfigFile, "config", "", "path to a config file (defaults to $NIMBUSC_CONFIG or ~/.nimbusc/config.yaml)")

	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.Flags().AddGoFlagSet(klogFlags)
}

func (o *Options) cacheDir() string {
	if o.CacheHomeDir != "" {
		return o.CacheHomeDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), nimbuscHomeDir, "cache")
	}
	return filepath.Join(home, nimbuscHomeDir, "cache")
}

// NewCommand builds the nimbusc root cobra command.
func NewCommand(ctx context.Context) *cobra.Command {
	o := NewOptions()

	cmd := &cobra.Command{
		Use:           "nimbusc",
		Short:         "nimbusc compiles a batch of Nimbus source files in parallel",
		Long:          "nimbusc drives parallel compilation of Nimbus source files, resolving\ninter-file symbol dependencies discovered dynamically while files compile.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Configure(cmd); err != nil {
				return err
			}
			return runCompile(ctx, o)
		},
	}

	o.AddFlags(cmd)
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newCompletionCmd())
	return cmd
}

// splitHostToken renders a host,token pair for logging without printing
// the token itself.
func splitHostToken(host, token string) string {
	masked := "<empty>"
	if token != "" {
		masked = strings.Repeat("*", 4)
	}
	return fmt.Sprintf("%s=%s", host, masked)
}
