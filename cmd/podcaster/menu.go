package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var menuItems = []string{
	"end",
	"list queries",
	"list articles",
	"reset database",
	"fetch articles",
	"summarize articles",
	"generate podcast",
	"fetch and generate",
}

func newMenuCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Interactive numbered menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenuWithDir(cmd, ctx, outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write audio files into")
	return cmd
}

func runMenu(cmd *cobra.Command, ctx *commandContext) error {
	return runMenuWithDir(cmd, ctx, ".")
}

func runMenuWithDir(cmd *cobra.Command, ctx *commandContext, outDir string) error {
	client, err := ctx.client()
	if err != nil {
		return err
	}
	m := &menu{
		in:      bufio.NewScanner(cmd.InOrStdin()),
		out:     cmd.OutOrStdout(),
		client:  client,
		outDir:  outDir,
		baseURL: client.BaseURL(),
	}
	return m.run(cmd.Context())
}

type menu struct {
	in      *bufio.Scanner
	out     io.Writer
	client  daemonClient
	outDir  string
	baseURL string
}

func (m *menu) run(ctx context.Context) error {
	fmt.Fprintln(m.out, "** Welcome to Podcaster **")
	for {
		choice, ok := m.prompt()
		if !ok || choice == 0 {
			break
		}
		if err := m.dispatch(ctx, choice); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(m.out, "**ERROR:", wrapDaemonError(err, m.baseURL))
		}
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "** done **")
	return nil
}

// prompt prints the menu and returns the chosen item, or -1 for input that
// is not a number. ok is false once input is exhausted.
func (m *menu) prompt() (int, bool) {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, ">> Enter a command:")
	for i, item := range menuItems {
		fmt.Fprintf(m.out, "   %d => %s\n", i, item)
	}
	line, ok := m.readLine()
	if !ok {
		return 0, false
	}
	choice, err := strconv.Atoi(line)
	if err != nil || choice < 0 {
		return -1, true
	}
	return choice, true
}

func (m *menu) ask(question string) (string, bool) {
	fmt.Fprint(m.out, question)
	return m.readLine()
}

func (m *menu) readLine() (string, bool) {
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *menu) dispatch(ctx context.Context, choice int) error {
	switch choice {
	case 1:
		return listQueries(ctx, m.out, m.client)
	case 2:
		return listArticles(ctx, m.out, m.client)
	case 3:
		return resetDatabase(ctx, m.out, m.client)
	case 4:
		topic, ok := m.ask("Enter a query (e.g. technology, climate,...)> ")
		if !ok {
			return nil
		}
		_, err := fetchArticles(ctx, m.out, m.client, topic)
		return err
	case 5:
		id, ok := m.ask("Enter a query ID> ")
		if !ok {
			return nil
		}
		result, err := summarizeQuery(ctx, m.out, m.client, id)
		if err != nil {
			return err
		}
		if answer, ok := m.ask("Do you want to read the generated script? (y/n) "); ok && strings.EqualFold(answer, "y") {
			fmt.Fprintln(m.out, result.Script)
		}
		return nil
	case 6:
		id, ok := m.ask("Enter a query ID> ")
		if !ok {
			return nil
		}
		_, err := downloadPodcast(ctx, m.out, m.client, id, m.outDir)
		return err
	case 7:
		return m.fetchAndGenerate(ctx)
	default:
		fmt.Fprintln(m.out, "** Unknown command, try again...")
		return nil
	}
}

func (m *menu) fetchAndGenerate(ctx context.Context) error {
	topic, ok := m.ask("Enter a query (e.g. technology, climate,...)> ")
	if !ok {
		return nil
	}
	fetched, err := fetchArticles(ctx, m.out, m.client, topic)
	if err != nil {
		return err
	}
	id := strconv.FormatInt(fetched.QueryID, 10)
	if _, err := summarizeQuery(ctx, m.out, m.client, id); err != nil {
		return err
	}
	_, err = downloadPodcast(ctx, m.out, m.client, id, m.outDir)
	return err
}
