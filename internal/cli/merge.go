package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/rickykhulal/bolt-earth/internal/config"
	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

var (
	mergeFile       string
	mergePriorities string
	mergeThreshold  float64
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge source readings from a JSON file",
	Long: `Reads source readings and prints the merged reading as JSON.
The input is either an array of readings or an object with city, country,
lat, lng and readings. Use "-" to read from stdin.`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeFile, "file", "f", "-", "input file, - for stdin")
	mergeCmd.Flags().StringVar(&mergePriorities, "priorities", "", "TOML source-priority file")
	mergeCmd.Flags().Float64Var(&mergeThreshold, "threshold", fusion.DefaultThreshold, "relative agreement threshold")
	rootCmd.AddCommand(mergeCmd)
}

type mergeInput struct {
	City     string                 `json:"city"`
	Country  string                 `json:"country"`
	Lat      *float64               `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng      *float64               `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	Readings []fusion.SourceReading `json:"readings" validate:"dive"`
}

func runMerge(cmd *cobra.Command, _ []string) error {
	data, err := readInput(cmd, mergeFile)
	if err != nil {
		return err
	}

	in, err := parseMergeInput(data)
	if err != nil {
		return err
	}

	if mergeThreshold <= 0 || mergeThreshold >= 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %v", mergeThreshold)
	}
	merger := fusion.NewMerger()
	merger.Threshold = mergeThreshold
	if mergePriorities != "" {
		if merger.Priorities, err = config.LoadPriorities(mergePriorities); err != nil {
			return err
		}
	}

	place := fusion.Place{City: in.City, Country: in.Country}
	if in.Lat != nil && in.Lng != nil {
		place.Lat, place.Lng = *in.Lat, *in.Lng
	}

	out, err := json.MarshalIndent(merger.Merge(in.Readings, place), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal merged reading: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func parseMergeInput(data []byte) (mergeInput, error) {
	var in mergeInput
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return in, errors.New("empty input")
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &in.Readings); err != nil {
			return in, fmt.Errorf("parse readings: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &in); err != nil {
		return in, fmt.Errorf("parse input: %w", err)
	}

	if err := validator.New().Struct(in); err != nil {
		return in, fmt.Errorf("invalid input: %w", err)
	}
	return in, nil
}
