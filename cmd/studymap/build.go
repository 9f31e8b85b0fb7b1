package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OFFIS-RIT/studymap/internal/provider"
	"github.com/OFFIS-RIT/studymap/pkg/ai"
	"github.com/OFFIS-RIT/studymap/pkg/graph"
	"github.com/OFFIS-RIT/studymap/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Build a mind map from a JSON or YAML request",
	Long: `Build reads a request with "concepts", "relationships" and "complexity"
from a file (or stdin when the file is "-" or omitted), runs the graph
engine and writes the mind map and build report to stdout.

With --embedder env the provider configured by AI_ADAPTER and related
variables is used for semantic deduplication; with none only identical
phrases are merged.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.String("complexity", "", "Low, Medium or High (overrides the request)")
	f.String("input-format", "", "json or yaml (default: from file extension)")
	f.String("output", "json", "json or yaml")
	f.Bool("pretty", false, "indent JSON output")
	f.String("embedder", "none", "none, or env to use the AI_ADAPTER provider")
	f.Bool("remap-merged", false, "rewrite relationships of merged phrases to their canonical phrase")
	f.Bool("detach-orphans", false, "leave phrases without a parent unattached")
	f.Duration("embed-timeout", 0, "timeout for the embedding call (default 30s)")

	for _, name := range []string{"complexity", "output", "pretty", "embedder", "remap-merged", "detach-orphans", "embed-timeout"} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	inFormat, _ := cmd.Flags().GetString("input-format")
	req, err := decodeRequest(data, inputFormat(inFormat, path))
	if err != nil {
		return err
	}
	if c := viper.GetString("complexity"); c != "" {
		req.Complexity = c
	}

	var embedder ai.Embedder
	switch mode := viper.GetString("embedder"); mode {
	case "none", "":
	case "env":
		e, err := provider.NewEmbedderFromEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		embedder = e.Embedder
	default:
		return fmt.Errorf("unknown embedder %q", mode)
	}

	builder := graph.NewGraphBuilder(builderParams(embedder))
	resp, err := builder.BuildMindMap(ctx, req)
	if err != nil {
		return err
	}

	logger.Debug("[CLI] Built mind map", "nodes", len(resp.MindMap.Nodes), "degraded", resp.Report.Degraded)
	return encodeOutput(cmd.OutOrStdout(), resp, viper.GetString("output"), viper.GetBool("pretty"))
}

// builderParams maps flags and the merge_thresholds / child_ceilings
// sections of studymap.yaml onto the builder configuration.
func builderParams(embedder ai.Embedder) graph.NewGraphBuilderParams {
	params := graph.NewGraphBuilderParams{
		Embedder:                 embedder,
		EmbedTimeout:             viper.GetDuration("embed-timeout"),
		RemapMergedRelationships: viper.GetBool("remap-merged"),
		KeepOrphansDetached:      viper.GetBool("detach-orphans"),
		MergeThresholds:          map[graph.Complexity]float64{},
		ChildCeilings:            map[graph.Complexity]int{},
	}
	for _, c := range []graph.Complexity{graph.Low, graph.Medium, graph.High} {
		name := strings.ToLower(c.String())
		if key := "merge_thresholds." + name; viper.IsSet(key) {
			params.MergeThresholds[c] = viper.GetFloat64(key)
		}
		if key := "child_ceilings." + name; viper.IsSet(key) {
			params.ChildCeilings[c] = viper.GetInt(key)
		}
	}
	return params
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
