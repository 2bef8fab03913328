// Package cli implements xenoctl, a command line client for the habitat API.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xenolab/xenolab-relay/internal/config"
	"github.com/xenolab/xenolab-relay/internal/logger"
	"github.com/xenolab/xenolab-relay/pkg/httpclient"
	"github.com/xenolab/xenolab-relay/pkg/xenolab"
)

// session holds the flag values and the clients built from them.
type session struct {
	baseURL  string
	timeout  time.Duration
	headers  []string
	logLevel string

	api *httpclient.APIClient
	svc *xenolab.Service
}

// Prepare builds the xenoctl command tree.
func Prepare() *cobra.Command {
	s := &session{}

	rootCmd := &cobra.Command{
		Use:          "xenoctl",
		Short:        "Query and control a xenolab habitat backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&s.baseURL, "base-url", "", "habitat API origin (defaults to API_BASE_URL, then "+httpclient.DefaultBaseURL+")")
	rootCmd.PersistentFlags().DurationVar(&s.timeout, "timeout", 0, "request timeout (defaults to API_TIMEOUT_SECONDS)")
	rootCmd.PersistentFlags().StringArrayVarP(&s.headers, "header", "H", nil, `extra request header as "Key: Value", repeatable`)
	rootCmd.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "log level written to stderr. One of debug, info, warn, error")

	rootCmd.AddCommand(
		getCmd(s),
		postCmd(s),
		requestCmd(s),
		readingsCmd(s),
		lifeformCmd(s),
		cameraCmd(s),
		mapCmd(s),
	)
	return rootCmd
}

func (s *session) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("base-url") {
		s.baseURL = cfg.APIBaseURL
	}
	if !flags.Changed("timeout") {
		s.timeout = cfg.APITimeout
	}
	if !flags.Changed("log-level") {
		s.logLevel = cfg.LogLevel
	}

	headers, err := parseHeaders(s.headers)
	if err != nil {
		return err
	}

	log, err := logger.InitLevel(s.logLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	s.api = httpclient.New(s.baseURL,
		httpclient.WithTimeout(s.timeout),
		httpclient.WithHeaders(headers),
		httpclient.WithLogger(log),
	)
	s.svc = xenolab.NewService(s.api)
	return nil
}

// parseHeaders turns repeated "Key: Value" flags into a header map.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		key, val, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q (expected \"Key: Value\")", h)
		}
		out[key] = strings.TrimSpace(val)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
