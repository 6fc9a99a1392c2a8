/*
Package main is the entry point for the moodbrain CLI.

moodbrain suggests mood labels for short texts with a Naive Bayes classifier
and learns from the corrections its users make.

Usage:
  moodbrain [command]

Available Commands:
  serve       Run the MCP server (stdio transport)
  classify    Suggest a mood label for text
  correct     Record the mood label a user chose for text
  train       Train a model from the corpus and show its statistics
  evaluate    Measure accuracy on a held-out split of the corpus
  update      Merge pending corrections into the corpus
  corpus      Manage the training corpus
  feedback    Inspect stored corrections
  config      Create or show the configuration file
  version     Show version information

Examples:
  # Create a starter corpus and try it
  moodbrain corpus init
  moodbrain classify "finally a quiet evening"

  # Run as MCP server
  moodbrain serve
*/
package main

import (
	"fmt"
	"os"

	"github.com/khanglvm/moodbrain/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
