package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"podcaster/internal/api"
	"podcaster/internal/apiclient"
	"podcaster/internal/textutil"
)

// daemonClient is the subset of apiclient.Client the commands and menu use.
type daemonClient interface {
	Fetch(ctx context.Context, topic string) (api.FetchResult, error)
	Summarize(ctx context.Context, id int64) (api.ScriptResult, error)
	Podcast(ctx context.Context, id int64) (api.AudioResult, error)
	Generate(ctx context.Context, topic string) (api.AudioResult, error)
	Queries(ctx context.Context) ([]api.QueryView, error)
	Articles(ctx context.Context) ([]api.ArticleView, error)
	Reset(ctx context.Context) error
}

func wrapDaemonError(err error, baseURL string) error {
	if err == nil {
		return nil
	}
	if apiclient.IsUnreachable(err) {
		return fmt.Errorf("connect to daemon at %s failed; start it with `podcaster start`: %w", baseURL, err)
	}
	return err
}

func listQueries(ctx context.Context, out io.Writer, client daemonClient) error {
	queries, err := client.Queries(ctx)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		fmt.Fprintln(out, "no queries...")
		return nil
	}
	rows := make([][]string, 0, len(queries))
	for _, q := range queries {
		rows = append(rows, []string{
			strconv.FormatInt(q.QueryID, 10),
			q.QueryText,
			q.Status,
			dashIfEmpty(q.TextKey),
			dashIfEmpty(q.ScriptKey),
			dashIfEmpty(q.AudioKey),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Query", "Status", "Text Key", "Script Key", "Audio Key"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

func listArticles(ctx context.Context, out io.Writer, client daemonClient) error {
	articles, err := client.Articles(ctx)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Fprintln(out, "no articles...")
		return nil
	}
	rows := make([][]string, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, []string{
			strconv.FormatInt(a.ArticleID, 10),
			strconv.FormatInt(a.QueryID, 10),
			a.Headline,
			a.URL,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Query", "Title", "URL"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
	))
	return nil
}

func resetDatabase(ctx context.Context, out io.Writer, client daemonClient) error {
	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "success")
	return nil
}

func fetchArticles(ctx context.Context, out io.Writer, client daemonClient, topic string) (api.FetchResult, error) {
	topic, err := api.ValidateTopic(topic)
	if err != nil {
		return api.FetchResult{}, err
	}
	fmt.Fprintf(out, "Fetching articles for query: %s\n(This may take a few seconds...)\n", topic)
	result, err := client.Fetch(ctx, topic)
	if err != nil {
		return api.FetchResult{}, err
	}
	fmt.Fprintln(out, "Articles successfully fetched")
	fmt.Fprintf(out, "Your query id: %d\n\n", result.QueryID)
	fmt.Fprintln(out, "We fetched the following articles:")
	for _, headline := range result.ArticleHeadlines {
		fmt.Fprintf(out, "  - %s\n", headline)
	}
	return result, nil
}

func summarizeQuery(ctx context.Context, out io.Writer, client daemonClient, rawID string) (api.ScriptResult, error) {
	id, err := api.ParseQueryID(rawID)
	if err != nil {
		return api.ScriptResult{}, err
	}
	fmt.Fprintf(out, "Generating podcast script for query ID: %d\n(This may take a few seconds...)\n", id)
	result, err := client.Summarize(ctx, id)
	if err != nil {
		return api.ScriptResult{}, err
	}
	fmt.Fprintln(out, "Summary successfully generated")
	return result, nil
}

func downloadPodcast(ctx context.Context, out io.Writer, client daemonClient, rawID, outDir string) (string, error) {
	id, err := api.ParseQueryID(rawID)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "Generating podcast for query ID: %d\n(This may take a few seconds...)\n", id)
	result, err := client.Podcast(ctx, id)
	if err != nil {
		return "", err
	}
	return saveAudio(out, result, outDir)
}

func generatePodcast(ctx context.Context, out io.Writer, client daemonClient, topic, outDir string) (string, error) {
	topic, err := api.ValidateTopic(topic)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "Generating podcast for query: %s\n(This may take a while...)\n", topic)
	result, err := client.Generate(ctx, topic)
	if err != nil {
		return "", err
	}
	return saveAudio(out, result, outDir)
}

// saveAudio writes the podcast into outDir, named after its query text with
// the extension of the stored audio key.
func saveAudio(out io.Writer, result api.AudioResult, outDir string) (string, error) {
	if result.AudioKey == "" || len(result.AudioData) == 0 {
		return "", fmt.Errorf("missing audio data in response for query %d", result.QueryID)
	}
	if strings.TrimSpace(outDir) == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %q: %w", outDir, err)
	}
	name := textutil.AudioFileName(result.QueryText, path.Ext(result.AudioKey))
	target := filepath.Join(outDir, name)
	if err := os.WriteFile(target, result.AudioData, 0o644); err != nil {
		return "", fmt.Errorf("write podcast: %w", err)
	}
	fmt.Fprintf(out, "Podcast generated and downloaded successfully as %s\n", target)
	return target, nil
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
