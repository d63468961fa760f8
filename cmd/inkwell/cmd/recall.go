package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-kb/inkwell/internal/resolve"
)

// newRecallCmd creates the recall command: query the hybrid index.
func newRecallCmd() *cobra.Command {
	var topK int
	var resolver string
	var contentType string
	var domain string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recall <query>",
		Short: "Search the knowledge store",
		Long: `Recall resolves a query against the store. The strategy is picked by
capability tier — keyword-only on base hardware, hybrid BM25+vector
everywhere else — unless --resolver forces one explicitly.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			query := resolve.Query{
				Text: strings.Join(args, " "),
				TopK: topK,
				Filters: resolve.Filters{
					ContentType: contentType,
					Domain:      domain,
				},
			}
			if query.TopK <= 0 {
				query.TopK = cfg.Search.DefaultTopK
			}

			var kind *resolve.Kind
			if resolver != "" {
				k, err := parseResolver(resolver)
				if err != nil {
					return err
				}
				kind = &k
			}

			result, err := a.orch.Recall(cmd.Context(), query, kind)
			if err != nil {
				return err
			}

			if asJSON {
				payload := struct {
					Strategy string         `json:"strategy"`
					Items    []resolve.Item `json:"items"`
				}{Strategy: result.Strategy.String(), Items: result.Items}
				out, err := json.MarshalIndent(payload, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(out))
				return nil
			}

			cmd.Printf("Strategy: %s · %d results\n\n", result.Strategy, len(result.Items))
			for i, item := range result.Items {
				text := item.Text
				if len(text) > 200 {
					text = text[:200] + "…"
				}
				cmd.Printf("%2d. [%.4f] doc %d chunk %d\n    %s\n\n",
					i+1, item.Score, item.DocID, item.ChunkID, strings.ReplaceAll(text, "\n", " "))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of results (default from config)")
	cmd.Flags().StringVar(&resolver, "resolver", "", "Force a strategy: keyword, hybrid, entity, vector, timeline, answer")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Filter by content type tag")
	cmd.Flags().StringVar(&domain, "domain", "", "Filter by domain tag")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit results as JSON")

	return cmd
}

func parseResolver(s string) (resolve.Kind, error) {
	switch strings.ToLower(s) {
	case "keyword":
		return resolve.Keyword, nil
	case "hybrid":
		return resolve.Hybrid, nil
	case "entity":
		return resolve.Entity, nil
	case "vector":
		return resolve.Vector, nil
	case "timeline":
		return resolve.Timeline, nil
	case "answer":
		return resolve.Answer, nil
	default:
		return 0, fmt.Errorf("unknown resolver %q (use keyword, hybrid, entity, vector, timeline, or answer)", s)
	}
}
