package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/model"
	"github.com/roach88/ledger/internal/store"
	"github.com/roach88/ledger/internal/template"
)

// NewTemplatesCommand creates the templates command group.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage invoice templates",
	}

	cmd.AddCommand(newTemplatesListCommand(rootOpts))
	cmd.AddCommand(newTemplatesImportCommand(rootOpts))
	cmd.AddCommand(newTemplatesDeleteCommand(rootOpts))

	return cmd
}

// templateRow is a template together with its primary key.
type templateRow struct {
	Key string `json:"key"`
	model.InvoiceTemplate
}

type templateList struct {
	Templates []templateRow `json:"templates"`
}

func newTemplateList(templates []model.InvoiceTemplate) templateList {
	rows := make([]templateRow, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, templateRow{Key: store.KeyForTemplate(t), InvoiceTemplate: t})
	}
	return templateList{Templates: rows}
}

func (l templateList) WriteText(w io.Writer) error {
	if len(l.Templates) == 0 {
		_, err := fmt.Fprintln(w, "No invoice templates.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tNUMBER\tNAME\tTO\tLINES\tNET\tTAX\tKEY")
	for _, row := range l.Templates {
		net, tax := row.Total()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			row.Date.Format(model.DateFormat),
			row.InvoiceNumber,
			row.Name,
			row.To.Name,
			len(row.Items),
			net.StringFixed(model.MoneyScale),
			tax.StringFixed(model.MoneyScale),
			row.Key,
		)
	}
	return tw.Flush()
}

type templateSaved struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	templateList
}

func (s templateSaved) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%s %s\n\n", s.Action, s.Key)
	return s.templateList.WriteText(w)
}

func newTemplatesListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List invoice templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return opts.withStore(cmd, f, func(ctx context.Context, s *store.Store) error {
				templates, err := s.InvoiceTemplates(ctx)
				if err != nil {
					return f.Fail("failed to list invoice templates", err)
				}
				return f.Success(newTemplateList(templates))
			})
		},
	}
}

func newTemplatesImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import an invoice template from CUE or YAML",
		Long: fmt.Sprintf(`Validate a template file against the template schema and store it.

Supported extensions: %s. A template without an id gets a new one;
importing a file with an existing id replaces that template.

Examples:
  ledger templates import ./invoices/acme-april.cue
  ledger templates import ./acme.yaml --format json`, strings.Join(template.Extensions, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			tmpl, err := template.Load(args[0], opts.IDs)
			if err != nil {
				return f.Fail("invalid invoice template", err)
			}
			f.VerboseLog("loaded %s: %d line(s)", args[0], len(tmpl.Items))

			return opts.withStore(cmd, f, func(ctx context.Context, s *store.Store) error {
				templates, err := s.CreateInvoiceTemplate(ctx, tmpl)
				if err != nil {
					return f.Fail("failed to save invoice template", err)
				}
				return f.Success(templateSaved{
					Action:       "Imported",
					Key:          store.KeyForTemplate(tmpl),
					templateList: newTemplateList(templates),
				})
			})
		},
	}
}

func newTemplatesDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete an invoice template by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return opts.withStore(cmd, f, func(ctx context.Context, s *store.Store) error {
				templates, err := s.DeleteInvoiceTemplate(ctx, args[0])
				if err != nil {
					return f.Fail("failed to delete invoice template", err)
				}
				return f.Success(templateSaved{
					Action:       "Deleted",
					Key:          args[0],
					templateList: newTemplateList(templates),
				})
			})
		},
	}
}
