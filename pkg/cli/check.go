package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/schemagate/pkg/apierror"
	"github.com/getmockd/schemagate/pkg/cache"
	"github.com/getmockd/schemagate/pkg/cli/internal/output"
	"github.com/getmockd/schemagate/pkg/gateway"
	"github.com/getmockd/schemagate/pkg/schema"
)

// ErrRejected is returned by the check command when the request is invalid.
var ErrRejected = errors.New("request rejected")

// CheckResult is the JSON output of a successful check.
type CheckResult struct {
	Valid bool       `json:"valid"`
	Key   schema.Key `json:"key"`
}

type checkFlags struct {
	method      string
	path        string
	contentType string
}

var checkFlagVals checkFlags

var checkCmd = &cobra.Command{
	Use:   "check <body.json|->",
	Short: "Validate a request body offline",
	Long: `Resolve the schema for a JSON request body and validate it the way the
gateway would, without starting a server. Use "-" to read the body from stdin.

A rejected request prints its problem document and exits non-zero.`,
	Example: `  schemagate check -c gateway.yaml search.json
  cat search.json | schemagate check -c gateway.yaml --path /search -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		body, err := readBody(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(cmd.Context(), checkFlagVals.method, "http://localhost"+checkFlagVals.path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("invalid request: %w", err)
		}
		if checkFlagVals.contentType != "" {
			req.Header.Set("Content-Type", checkFlagVals.contentType)
		}

		store := schema.NewStore(cfg.App.SchemaDir)
		resolver := gateway.NewResolver(store, gateway.Policy{
			UseSecondary:     cfg.App.UseLayer2Config,
			MandateSecondary: cfg.App.MandateLayer2Config,
		})
		validators := cache.New(store, 1, cache.WithCompiler(newCompiler(cfg)))

		out := cmd.OutOrStdout()
		key, err := gateway.Validate(req, resolver, validators, cfg.ProtocolServerLevel())
		if err != nil {
			apiErr, _ := apierror.As(err)
			if err := output.JSON(out, apierror.NewProblem(apiErr, "")); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s", ErrRejected, apiErr.Kind)
		}

		result := CheckResult{Valid: true, Key: key}
		return printResult(out, result, func() {
			fmt.Fprintf(out, "valid (schema %s)\n", key)
		})
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	f := &checkFlagVals
	checkCmd.Flags().StringVarP(&f.method, "method", "X", http.MethodPost, "HTTP method of the request")
	checkCmd.Flags().StringVar(&f.path, "path", "/search", "Request path")
	checkCmd.Flags().StringVar(&f.contentType, "content-type", "application/json", "Content-Type header")
}

func readBody(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return data, nil
}
