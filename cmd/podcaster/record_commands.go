package main

import (
	"github.com/spf13/cobra"

	"podcaster/internal/apiclient"
)

func newRecordCommands(ctx *commandContext) []*cobra.Command {
	queriesCmd := &cobra.Command{
		Use:   "queries",
		Short: "List every query and its progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				return listQueries(cmd.Context(), cmd.OutOrStdout(), client)
			})
		},
	}

	articlesCmd := &cobra.Command{
		Use:   "articles",
		Short: "List the articles fetched for every query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				return listArticles(cmd.Context(), cmd.OutOrStdout(), client)
			})
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all queries and articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				return resetDatabase(cmd.Context(), cmd.OutOrStdout(), client)
			})
		},
	}

	return []*cobra.Command{queriesCmd, articlesCmd, resetCmd}
}
