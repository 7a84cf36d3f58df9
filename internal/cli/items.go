package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/model"
	"github.com/roach88/ledger/internal/store"
)

// NewItemsCommand creates the items command group.
func NewItemsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage accounting items",
	}

	cmd.AddCommand(newItemsListCommand(rootOpts))
	cmd.AddCommand(newItemsAddCommand(rootOpts))
	cmd.AddCommand(newItemsDeleteCommand(rootOpts))
	cmd.AddCommand(newItemsSummaryCommand(rootOpts))

	return cmd
}

// itemRow is an item together with its primary key.
type itemRow struct {
	Key string `json:"key"`
	model.AccountingItem
}

// itemList is the payload of every command that returns a period's items.
type itemList struct {
	Range model.DateRange `json:"range"`
	Items []itemRow       `json:"items"`
}

func newItemList(r model.DateRange, items []model.AccountingItem) itemList {
	rows := make([]itemRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, itemRow{Key: store.KeyForItem(item), AccountingItem: item})
	}
	return itemList{Range: r, Items: rows}
}

func (l itemList) WriteText(w io.Writer) error {
	if len(l.Items) == 0 {
		_, err := fmt.Fprintf(w, "No items between %s and %s.\n", l.Range.From, l.Range.To)
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tDIR\tNAME\tCOMPANY\tCATEGORY\tNET\tVAT\tGROSS\tKEY")
	for _, row := range l.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Date.Format(model.DateFormat),
			row.Direction,
			row.Name,
			row.Company,
			row.Category,
			row.Net.StringFixed(model.MoneyScale),
			row.Vat,
			row.Gross().StringFixed(model.MoneyScale),
			row.Key,
		)
	}
	return tw.Flush()
}

// itemSaved reports a write together with the refreshed period.
type itemSaved struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	itemList
}

func (s itemSaved) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%s %s\n\n", s.Action, s.Key)
	return s.itemList.WriteText(w)
}

// ItemsListOptions holds flags for the items list command.
type ItemsListOptions struct {
	*RootOptions
	period periodFlags
}

func newItemsListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemsListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the items of a period",
		Long: `List the accounting items dated within a year, quarter or month.

Examples:
  ledger items list --year 2024
  ledger items list --year 2024 --quarter Q2
  ledger items list --month march --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsList(opts, cmd)
		},
	}
	opts.period.register(cmd)

	return cmd
}

func runItemsList(opts *ItemsListOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	r, err := opts.period.dateRange(opts.Now())
	if err != nil {
		return f.Fail("invalid period", err)
	}

	return opts.withStore(cmd, f, func(ctx context.Context, s *store.Store) error {
		items, err := s.AccountingItemsInRange(ctx, r)
		if err != nil {
			return f.Fail("failed to list items", err)
		}
		return f.Success(newItemList(r, items))
	})
}

// ItemsAddOptions holds flags for the items add command.
type ItemsAddOptions struct {
	*RootOptions
	period    periodFlags
	ID        string
	Date      string
	Direction string
	Name      string
	Company   string
	Category  string
	Net       string
	Vat       string
	File      string
}

func newItemsAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemsAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create or update an item",
		Long: `Create an accounting item, or update an existing one when --id names it.

An update may move the item to another date; the old record is replaced.
The items of the period (default: the year of the item) are listed after
the write.

Examples:
  ledger items add --date 2024-02-10 --name Rent --company "Acme GmbH" --category Office --net 800
  ledger items add --id 0190a0f2-... --date 2024-02-11 --name Rent --net 850 --vat 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "identity of the item to update (default: new item)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "item date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Direction, "direction", "out", "in (received invoice) or out (issued invoice)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "item name")
	cmd.Flags().StringVar(&opts.Company, "company", "", "company")
	cmd.Flags().StringVar(&opts.Category, "category", "", "category")
	cmd.Flags().StringVar(&opts.Net, "net", "", "net amount (required)")
	cmd.Flags().StringVar(&opts.Vat, "vat", "20", "vat rate: 0, 10 or 20")
	cmd.Flags().StringVar(&opts.File, "file", "", "path of the attached receipt")
	_ = cmd.MarkFlagRequired("net")
	opts.period.register(cmd)

	return cmd
}

// item builds the accounting item described by the flags.
func (o *ItemsAddOptions) item() (model.AccountingItem, error) {
	item := model.AccountingItem{
		Name:     o.Name,
		Company:  o.Company,
		Category: o.Category,
		File:     o.File,
	}

	var err error
	if o.ID != "" {
		if item.ID, err = uuid.Parse(o.ID); err != nil {
			return item, fmt.Errorf("invalid id %q: %w", o.ID, err)
		}
	} else {
		item.ID = o.IDs.NewID()
	}

	if o.Date == "" {
		item.Date = model.Day(o.Now())
	} else if item.Date, err = model.ParseDate(o.Date); err != nil {
		return item, err
	}

	if item.Direction, err = model.ParseDirection(o.Direction); err != nil {
		return item, err
	}
	if item.Net, err = decimal.NewFromString(o.Net); err != nil {
		return item, fmt.Errorf("invalid net amount %q", o.Net)
	}
	if item.Vat, err = model.ParseVat(o.Vat); err != nil {
		return item, err
	}
	return item, nil
}

func runItemsAdd(opts *ItemsAddOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	item, err := opts.item()
	if err != nil {
		return f.Fail("invalid item", err)
	}
	r, err := opts.period.dateRange(item.Date)
	if err != nil {
		return f.Fail("invalid period", err)
	}

	return opts.withStore(cmd, f, func(ctx context.Context, s *store.Store) error {
		items, err := s.CreateOrUpdateAccountingItem(ctx, item, r)
		if err != nil {
			return f.Fail("failed to save item", err)
		}
		f.VerboseLog("saved %s, %d item(s) in %s", store.KeyForItem(item), len(items), r)
		return f.Success(itemSaved{
			Action:   "Saved",
			Key:      store.KeyForItem(item),
			itemList: newItemList(r, items),
		})
	})
}

// ItemsDeleteOptions holds flags for the items delete command.
type ItemsDeleteOptions struct {
	*RootOptions
	period periodFlags
}

func newItemsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemsDeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete an item by key",
		Long: `Delete the accounting item stored under key (as shown by items list).

The items of the period (default: the year of the key's date) are listed
after the delete. Deleting a key that does not exist fails with E_NOT_FOUND
and exit code 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsDelete(opts, args[0], cmd)
		},
	}
	opts.period.register(cmd)

	return cmd
}

func runItemsDelete(opts *ItemsDeleteOptions, key string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	date, _, ok := store.SplitKey(key)
	if !ok {
		return f.Fail("invalid key", fmt.Errorf("key %q is not <YYYY-MM-DD>_<id>", key))
	}
	day, err := model.ParseDate(date)
	if err != nil {
		return f.Fail("invalid key", err)
	}
	r, err := opts.period.dateRange(day)
	if err != nil {
		return f.Fail("invalid period", err)
	}

	return opts.withStore(cmd, f, func(ctx context.Context, s *store.Store) error {
		items, err := s.DeleteAccountingItem(ctx, key, r)
		if err != nil {
			return f.Fail("failed to delete item", err)
		}
		return f.Success(itemSaved{
			Action:   "Deleted",
			Key:      key,
			itemList: newItemList(r, items),
		})
	})
}

// summaryReport is the payload of items summary.
type summaryReport struct {
	Range   model.DateRange `json:"range"`
	Balance decimal.Decimal `json:"balance"`
	model.Summary
}

func (s summaryReport) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Period %s to %s, %d item(s)\n\n", s.Range.From, s.Range.To, s.Count)

	tw := newTable(w)
	fmt.Fprintln(tw, "\tNET\tTAX\tGROSS")
	for _, row := range []struct {
		label  string
		totals model.Totals
	}{
		{"Incoming", s.Incoming},
		{"Outgoing", s.Outgoing},
	} {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.label,
			row.totals.Net.StringFixed(model.MoneyScale),
			row.totals.Tax.StringFixed(model.MoneyScale),
			row.totals.Gross.StringFixed(model.MoneyScale))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nBalance: %s\n", s.Balance.StringFixed(model.MoneyScale))

	if len(s.Categories) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nCategories:")
	tw = newTable(w)
	for _, c := range s.Categories {
		name := c.Category
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, c.Net.StringFixed(model.MoneyScale))
	}
	return tw.Flush()
}

// ItemsSummaryOptions holds flags for the items summary command.
type ItemsSummaryOptions struct {
	*RootOptions
	period periodFlags
}

func newItemsSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemsSummaryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize a period",
		Long: `Total the net, tax and gross amounts of a period per direction and
list the net amount of every category.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsSummary(opts, cmd)
		},
	}
	opts.period.register(cmd)

	return cmd
}

func runItemsSummary(opts *ItemsSummaryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	r, err := opts.period.dateRange(opts.Now())
	if err != nil {
		return f.Fail("invalid period", err)
	}

	return opts.withStore(cmd, f, func(ctx context.Context, s *store.Store) error {
		items, err := s.AccountingItemsInRange(ctx, r)
		if err != nil {
			return f.Fail("failed to summarize items", err)
		}
		sum := model.Summarize(items)
		return f.Success(summaryReport{Range: r, Balance: sum.Balance(), Summary: sum})
	})
}
