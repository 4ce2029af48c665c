package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"podcaster/internal/apiclient"
)

func newPipelineCommands(ctx *commandContext) []*cobra.Command {
	fetchCmd := &cobra.Command{
		Use:   "fetch <topic>",
		Short: "Create a query and fetch articles for a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				_, err := fetchArticles(cmd.Context(), cmd.OutOrStdout(), client, strings.Join(args, " "))
				return err
			})
		},
	}

	var quiet bool
	summarizeCmd := &cobra.Command{
		Use:   "summarize <queryid>",
		Short: "Generate the podcast script for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				result, err := summarizeQuery(cmd.Context(), cmd.OutOrStdout(), client, args[0])
				if err != nil {
					return err
				}
				if !quiet {
					fmt.Fprintln(cmd.OutOrStdout())
					fmt.Fprintln(cmd.OutOrStdout(), result.Script)
				}
				return nil
			})
		},
	}
	summarizeCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the generated script")

	var podcastOut string
	podcastCmd := &cobra.Command{
		Use:   "podcast <queryid>",
		Short: "Synthesize and download the podcast for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				_, err := downloadPodcast(cmd.Context(), cmd.OutOrStdout(), client, args[0], podcastOut)
				return err
			})
		},
	}
	podcastCmd.Flags().StringVarP(&podcastOut, "out", "o", ".", "Directory to write the audio file into")

	var generateOut string
	generateCmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Fetch, summarize, and synthesize a podcast in one step",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				_, err := generatePodcast(cmd.Context(), cmd.OutOrStdout(), client, strings.Join(args, " "), generateOut)
				return err
			})
		},
	}
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", ".", "Directory to write the audio file into")

	return []*cobra.Command{fetchCmd, summarizeCmd, podcastCmd, generateCmd}
}
