package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xenolab/xenolab-relay/pkg/httpclient"
	"github.com/xenolab/xenolab-relay/pkg/xenolab"
)

func getCmd(s *session) *cobra.Command {
	var query map[string]string
	cmd := &cobra.Command{
		Use:   "get <endpoint>",
		Short: "GET an endpoint and print the JSON response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := s.api.Get(cmd.Context(), args[0], httpclient.RequestOptions{Query: query})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringToStringVarP(&query, "query", "q", nil, "query parameters as key=value")
	return cmd
}

func postCmd(s *session) *cobra.Command {
	var (
		dataFile string
		form     map[string]string
	)
	cmd := &cobra.Command{
		Use:   "post <endpoint> [json]",
		Short: "POST a JSON body (or form fields) and print the JSON response",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(form) > 0 {
				out, err := s.api.Request(cmd.Context(), args[0], httpclient.RequestOptions{
					Method: http.MethodPost,
					Form:   form,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			}

			body, err := readBody(args[1:], dataFile)
			if err != nil {
				return err
			}
			out, err := s.api.Post(cmd.Context(), args[0], body, httpclient.RequestOptions{})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&dataFile, "data-file", "", "read the JSON body from a file")
	cmd.Flags().StringToStringVar(&form, "form", nil, "send form fields (key=value) instead of JSON")
	return cmd
}

func requestCmd(s *session) *cobra.Command {
	var (
		data  string
		query map[string]string
	)
	cmd := &cobra.Command{
		Use:   "request <method> <endpoint>",
		Short: "Send an arbitrary request and print the JSON response",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := httpclient.RequestOptions{
				Method: strings.ToUpper(args[0]),
				Query:  query,
			}
			if data != "" && (opts.Method == http.MethodGet || opts.Method == http.MethodHead) {
				return fmt.Errorf("--data is not sent with %s requests", opts.Method)
			}
			if data != "" {
				var body any
				if err := json.Unmarshal([]byte(data), &body); err != nil {
					return fmt.Errorf("parse --data: %w", err)
				}
				opts.Body = body
				opts.Headers = map[string]string{"Content-Type": "application/json"}
			}
			out, err := s.api.Request(cmd.Context(), args[1], opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringToStringVarP(&query, "query", "q", nil, "query parameters as key=value")
	return cmd
}

// readBody resolves the JSON body from a positional argument or a file.
// With neither, the body is an empty JSON object.
func readBody(args []string, dataFile string) (any, error) {
	var raw []byte
	switch {
	case dataFile != "" && len(args) > 0:
		return nil, fmt.Errorf("pass the body inline or with --data-file, not both")
	case dataFile != "":
		b, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("read data file: %w", err)
		}
		raw = b
	case len(args) > 0:
		raw = []byte(args[0])
	default:
		return map[string]any{}, nil
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("parse request body: %w", err)
	}
	return body, nil
}

func readingsCmd(s *session) *cobra.Command {
	var records int
	cmd := &cobra.Command{
		Use:       "readings <wind|sunlight|temphumidity>",
		Short:     "Print the latest sensor readings",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"wind", "sunlight", "temphumidity"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				out any
				err error
			)
			switch strings.ToLower(args[0]) {
			case "wind":
				out, err = s.svc.Wind(ctx, records)
			case "sunlight":
				out, err = s.svc.Sunlight(ctx, records)
			case "temphumidity":
				out, err = s.svc.TempHumidity(ctx, records)
			default:
				return fmt.Errorf("unknown sensor kind %q", args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVarP(&records, "records", "n", 0, "number of records to request (0 uses the backend default)")
	return cmd
}

func lifeformCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "lifeform",
		Short: "Print the lifeform catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := s.svc.Lifeform(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func cameraCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "camera",
		Short: "Inspect and control habitat cameras",
	}

	status := &cobra.Command{
		Use:   "status <id>",
		Short: "Print a camera's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cameraID(args[0])
			if err != nil {
				return err
			}
			out, err := s.svc.CameraStatus(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	var frameOut string
	frame := &cobra.Command{
		Use:   "frame <id>",
		Short: "Fetch the latest frame; --out writes the decoded JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cameraID(args[0])
			if err != nil {
				return err
			}
			f, err := s.svc.CameraFrame(cmd.Context(), id)
			if err != nil {
				return err
			}
			if frameOut == "" {
				return printJSON(cmd.OutOrStdout(), f)
			}
			img, err := f.JPEG()
			if err != nil {
				return err
			}
			if err := os.WriteFile(frameOut, img, 0o644); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"camera_id": f.CameraID,
				"bytes":     len(img),
				"file":      frameOut,
			})
		},
	}
	frame.Flags().StringVarP(&frameOut, "out", "o", "", "write the frame to this file")

	cmd.AddCommand(status, frame, controlCmd(s, xenolab.ActionStart), controlCmd(s, xenolab.ActionStop))
	return cmd
}

func controlCmd(s *session, action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: "Send the " + action + " action to a camera",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cameraID(args[0])
			if err != nil {
				return err
			}
			out, err := s.svc.CameraControl(cmd.Context(), id, action)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func mapCmd(s *session) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Download the habitat map PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			img, err := s.svc.Map(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, img, 0o644); err != nil {
				return fmt.Errorf("write map: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"bytes": len(img), "file": out})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "map.png", "output file")
	return cmd
}

func cameraID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid camera id %q", arg)
	}
	return id, nil
}
