package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/turtacn/CatalogMatch/internal/bootstrap"
	"github.com/turtacn/CatalogMatch/internal/domain/suggestion"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

func newSuggestCommand(opts *rootOptions) *cobra.Command {
	var (
		tenant      string
		identifier  string
		description string
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Match a single line item against the catalog",
		Long: "suggest runs one line item through the full matching pipeline and\n" +
			"prints the ranked candidates as JSON.  Intended for operators\n" +
			"verifying catalog and cross-reference imports.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if identifier == "" && description == "" {
				return errors.New(errors.ErrCodeValidation, "at least one of --identifier or --description is required")
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if tenant == "" {
				tenant = cfg.Multitenancy.DefaultTenant
			}
			if tenant == "" {
				return errors.New(errors.ErrCodeValidation, "--tenant is required when no default tenant is configured")
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			app, err := bootstrap.NewApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			batch, err := app.Engine.Suggest(cmd.Context(), tenant, []suggestion.LineItemQuery{{
				RawIdentifier:  identifier,
				RawDescription: description,
			}})
			if err != nil {
				return err
			}

			type candidateOut struct {
				CatalogID string   `json:"catalog_id"`
				Key       string   `json:"key"`
				Name      string   `json:"name"`
				UnitPrice *float64 `json:"unit_price,omitempty"`
				Score     float64  `json:"score"`
				MatchKind string   `json:"match_kind"`
			}
			out := make([]candidateOut, 0, len(batch[0]))
			for _, c := range batch[0] {
				out = append(out, candidateOut{
					CatalogID: c.Entry.ID.String(),
					Key:       c.Entry.Key,
					Name:      c.Entry.Name,
					UnitPrice: c.Entry.UnitPrice,
					Score:     c.Score,
					MatchKind: c.Kind.String(),
				})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant scope")
	cmd.Flags().StringVar(&identifier, "identifier", "", "part identifier from the purchase request")
	cmd.Flags().StringVar(&description, "description", "", "free-text item description")
	return cmd
}
