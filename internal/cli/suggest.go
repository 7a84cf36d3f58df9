package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/store"
)

// suggestionIndexes maps the suggest arguments onto secondary indexes.
var suggestionIndexes = map[string]store.Index{
	"names":      store.IndexNames,
	"companies":  store.IndexCompanies,
	"categories": store.IndexCategories,
}

type suggestionList struct {
	Kind   string   `json:"kind"`
	Values []string `json:"values"`
}

func (l suggestionList) WriteText(w io.Writer) error {
	if len(l.Values) == 0 {
		_, err := fmt.Fprintf(w, "No %s recorded.\n", l.Kind)
		return err
	}
	for _, v := range l.Values {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest names|companies|categories",
		Short: "List every value ever used for a field",
		Long: `List the distinct names, companies or categories of all stored items,
in sorted order. These are the values offered for completion in the shell.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"names", "companies", "categories"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			idx := suggestionIndexes[args[0]]

			return opts.withStore(cmd, f, func(ctx context.Context, s *store.Store) error {
				values, err := s.ListValues(ctx, idx)
				if err != nil {
					return f.Fail("failed to list "+args[0], err)
				}
				return f.Success(suggestionList{Kind: args[0], Values: values})
			})
		},
	}
}
