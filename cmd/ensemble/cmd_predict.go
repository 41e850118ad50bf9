package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/matchsight/ensemble/internal/application"
	"github.com/matchsight/ensemble/internal/domain"
)

var (
	configPath string
	inputPath  string
	verbose    bool
)

func init() {
	for _, cmd := range []*cobra.Command{predictCmd, batchCmd, statusCmd} {
		cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML engine config (defaults apply when omitted)")
		cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable structured logging to stderr")
	}
	predictCmd.Flags().StringVarP(&inputPath, "file", "f", "", "Input JSON file (stdin when omitted)")
	batchCmd.Flags().StringVarP(&inputPath, "file", "f", "", "Input JSON file holding an array of inputs (stdin when omitted)")
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Aggregate one ensemble input read from a file or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		var input domain.EnsembleInput
		if err := readJSON(inputPath, &input); err != nil {
			return err
		}

		result, err := eng.Predict(cmd.Context(), input)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), result)
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Aggregate a JSON array of ensemble inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		var inputs []domain.EnsembleInput
		if err := readJSON(inputPath, &inputs); err != nil {
			return err
		}

		items := eng.PredictBatch(cmd.Context(), inputs)

		// Errors are not JSON-serializable; flatten them for output.
		type batchOutput struct {
			Index  int                    `json:"index"`
			Result *domain.EnsembleResult `json:"result,omitempty"`
			Error  string                 `json:"error,omitempty"`
		}
		out := make([]batchOutput, len(items))
		for i, item := range items {
			out[i] = batchOutput{Index: item.Index, Result: item.Result}
			if item.Err != nil {
				out[i].Error = item.Err.Error()
			}
		}
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the engine's effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), eng.Status())
	},
}

// buildEngine loads the config (or defaults) and constructs the engine.
func buildEngine() (*application.Engine, error) {
	cfg := application.DefaultConfig()
	if configPath != "" {
		loaded, err := application.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if verbose {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return application.New(cfg)
}

// readJSON decodes one JSON document from the given file, or stdin when
// the path is empty.
func readJSON(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode input: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
