// Package searchcmder provides the search command for querying memories.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/config"
	"github.com/engramhq/engram/pkg/logger"
	"github.com/engramhq/engram/pkg/search"
)

type searchCommander struct {
	query       string
	limit       int
	memoryTypes []string
	noGraph     bool
	quiet       bool

	apiTarget string

	debug  bool
	logger *zap.Logger
}

const searchLongDesc string = `Search memories via the Engram API.

Plain text runs combined exact and semantic search, identifiers run exact
lookup, and '*' lists everything. Requires a running Engram server.

Use --quiet to output only memory ids, one per line, for piping into other
commands.

Example:
  engram search "where does casey work"
  engram search "*" --type person
  engram search 550e8400-e29b-41d4-a716-446655440000
  engram search "database migrations" --api-target http://localhost:8090
  engram search "quarterly goals" --limit 3 --quiet`

const searchShortDesc string = "Search memories"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", defaults.Search.Limit, "Maximum number of results")
	cmd.Flags().StringSliceVarP(&cmder.memoryTypes, "type", "t", nil, "Restrict results to these memory types")
	cmd.Flags().BoolVar(&cmder.noGraph, "no-graph", false, "Skip related-memory context")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only memory ids, one per line (for piping)")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Engram API server URL")

	return cmd
}

func (c *searchCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	output, err := SearchAPI(c.apiTarget, c.query, c.limit, c.memoryTypes, !c.noGraph)
	if err != nil {
		return err
	}

	if output.TotalFound == 0 {
		if !c.quiet {
			fmt.Println("No memories found.")
		}
		return nil
	}

	if c.quiet {
		for _, result := range output.Results {
			fmt.Println(result.ID)
		}
		return nil
	}

	fmt.Printf("\nResults for %q (%s)\n\n", output.Query, output.Intent)

	for i, result := range output.Results {
		c.printResult(i+1, result)
	}

	return nil
}

func (c *searchCommander) printResult(rank int, result search.Result) {
	name := result.Name
	if result.Placeholder {
		name = name + " (missing)"
	}

	fmt.Printf("  #%d  score: %.4f  [%s]  %s\n", rank, result.Score, result.MatchType, name)
	fmt.Printf("      id: %s", result.ID)
	if result.Type != "" {
		fmt.Printf("  type: %s", result.Type)
	}
	fmt.Println()

	for _, obs := range result.Observations {
		text := obs.Content
		if len(text) > 76 {
			text = text[:73] + "..."
		}
		text = strings.ReplaceAll(text, "\n", " ")
		fmt.Printf("      - %s\n", text)
	}

	if result.Related != nil {
		for _, rel := range result.Related.Ancestors {
			fmt.Printf("      <- %s [%s] %s\n", rel.RelationLabel, rel.Type, rel.Name)
		}
		for _, rel := range result.Related.Descendants {
			fmt.Printf("      -> %s [%s] %s\n", rel.RelationLabel, rel.Type, rel.Name)
		}
	}

	fmt.Println()
}

// SearchAPI calls the engram search API and returns the parsed response.
// Exported so other commands can reuse it.
func SearchAPI(apiTarget, query string, limit int, memoryTypes []string, includeGraph bool) (*search.Response, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/v1/search"
	q := searchURL.Query()
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	if len(memoryTypes) > 0 {
		q.Set("memory_types", strings.Join(memoryTypes, ","))
	}
	if !includeGraph {
		q.Set("include_graph_context", "false")
	}
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Engram API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output search.Response
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &output, nil
}
