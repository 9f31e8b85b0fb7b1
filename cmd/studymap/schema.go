package main

import (
	"github.com/OFFIS-RIT/studymap/pkg/ai"
	"github.com/OFFIS-RIT/studymap/pkg/common"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of a build request",
	RunE: func(cmd *cobra.Command, args []string) error {
		return encodeOutput(cmd.OutOrStdout(), ai.GenerateSchema(common.MindMapRequest{}), "json", true)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
