package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"acrobot/nlp"
)

var classifyNick string

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Print the intent the bot would read from a chat line",
	Example: `  acrobot classify "what is FTS?"
  acrobot classify when will the iss pass over london`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyNick, "nick", "acrobot", "Bot nick ignored inside questions")
}

func runClassify(cmd *cobra.Command, args []string) error {
	intent := nlp.Classify(classifyNick, strings.Join(args, " "))

	data, err := json.MarshalIndent(intent, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
