package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/logger"
	"github.com/roach88/ledger/internal/model"
	"github.com/roach88/ledger/internal/store"
	"github.com/roach88/ledger/internal/template"
	"github.com/roach88/ledger/internal/worker"
)

// HistoryFileName is kept inside the data directory.
const HistoryFileName = ".ledger_history"

var errUsage = errors.New("usage")

// shellCommands are the words the shell understands, in help order.
var shellCommands = []string{
	"list", "period", "add", "edit", "rm", "open",
	"templates", "import", "rmtemplate",
	"names", "companies", "categories",
	"help", "exit", "quit",
}

// NewShellCommand creates the interactive shell command.
func NewShellCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive bookkeeping shell",
		Long: `Start an interactive shell on the store.

Every command is handed to a single background worker, which runs store
operations one at a time and reports results and notifications back.
Tab completes commands and the names, companies and categories already in
use. Type 'help' for the command list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			s, err := opts.openStore(ctx)
			if err != nil {
				return f.Fail("failed to open store", err)
			}
			defer s.Close()

			sh := newShell(opts, s, cmd.OutOrStdout())
			return sh.run(ctx)
		},
	}
}

// shell is the interactive front end of the worker. Commands submit
// requests and wait until the worker has handled them, so output appears
// in command order.
type shell struct {
	opts   *RootOptions
	worker *worker.Worker
	out    io.Writer
	logger zerolog.Logger

	mu          sync.Mutex
	processed   int64
	tick        chan struct{}
	period      model.DateRange
	items       []model.AccountingItem
	templates   []model.InvoiceTemplate
	suggestions map[worker.UpdateType][]string
}

func newShell(opts *RootOptions, s worker.Store, out io.Writer) *shell {
	sh := &shell{
		opts:        opts,
		out:         out,
		logger:      logger.WithComponent("shell"),
		tick:        make(chan struct{}, 1),
		suggestions: make(map[worker.UpdateType][]string),
	}
	sh.worker = worker.New(s, sh.update,
		worker.WithLanguage(opts.Config.LanguageTag()),
		worker.WithFileOpener(worker.CommandOpener(opts.Config.FileOpenCommand)),
		worker.WithAfter(sh.done),
	)
	return sh
}

// start launches the worker, loads templates and suggestions and shows
// the items of the current year. The returned channel yields Run's result.
func (sh *shell) start(ctx context.Context) (<-chan error, error) {
	runErr := make(chan error, 1)
	go func() { runErr <- sh.worker.Run(ctx) }()

	if !sh.worker.Prime() {
		return runErr, errors.New("worker stopped")
	}
	r, err := model.ComputeDateRange(sh.opts.Now().Year(), nil, nil)
	if err != nil {
		return runErr, err
	}
	sh.mu.Lock()
	sh.period = r
	sh.mu.Unlock()

	return runErr, sh.submit(ctx, worker.FetchItems{Range: r})
}

// stop drains the worker and waits for Run to return.
func (sh *shell) stop(runErr <-chan error) error {
	sh.worker.Stop()
	err := <-runErr
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (sh *shell) run(ctx context.Context) error {
	runErr, err := sh.start(ctx)
	if err != nil {
		_ = sh.stop(runErr)
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(sh.complete)

	history := filepath.Join(sh.opts.Config.DataDir, HistoryFileName)
	if f, err := os.Open(history); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintln(sh.out, "Type 'help' for available commands.")
	for {
		input, err := line.Prompt("ledger> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}
			_ = sh.stop(runErr)
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := sh.exec(ctx, input)
		if err != nil {
			fmt.Fprintf(sh.out, "%v\n", err)
		}
		if quit {
			break
		}
	}

	if f, err := os.Create(history); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
	fmt.Fprintln(sh.out, "Bye!")
	return sh.stop(runErr)
}

// exec runs one shell command. Errors are user mistakes to be printed;
// store failures arrive as notifications instead.
func (sh *shell) exec(ctx context.Context, input string) (quit bool, err error) {
	args, err := splitArgs(input)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(args[0]), args[1:]

	switch name {
	case "exit", "quit", "q":
		return true, nil

	case "help", "?":
		sh.printHelp()
		return false, nil

	case "list", "ls":
		return false, sh.submit(ctx, worker.FetchItems{Range: sh.currentPeriod()})

	case "period":
		r, err := parsePeriod(args)
		if err != nil {
			return false, err
		}
		sh.mu.Lock()
		sh.period = r
		sh.mu.Unlock()
		return false, sh.submit(ctx, worker.FetchItems{Range: r})

	case "add":
		if !hasField(args, "net") {
			return false, fmt.Errorf("%w: add net=<amount> [date=] [dir=] [name=] [company=] [category=] [vat=] [file=]", errUsage)
		}
		item := model.AccountingItem{
			ID:        sh.opts.IDs.NewID(),
			Date:      model.Day(sh.opts.Now()),
			Direction: model.DirectionOut,
			Vat:       model.VatTwenty,
		}
		if item, err = applyFields(item, args); err != nil {
			return false, err
		}
		return false, sh.submit(ctx, worker.SaveItem{Item: item, Range: sh.currentPeriod()})

	case "edit":
		if len(args) < 2 {
			return false, fmt.Errorf("%w: edit <#> field=value ...", errUsage)
		}
		if hasField(args[1:], "id") {
			return false, errors.New("the id of an item cannot be changed")
		}
		item, err := sh.itemAt(args[0])
		if err != nil {
			return false, err
		}
		if item, err = applyFields(item, args[1:]); err != nil {
			return false, err
		}
		return false, sh.submit(ctx, worker.SaveItem{Item: item, Range: sh.currentPeriod()})

	case "rm", "del", "delete":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: rm <#>", errUsage)
		}
		item, err := sh.itemAt(args[0])
		if err != nil {
			return false, err
		}
		return false, sh.submit(ctx, worker.RemoveItem{Key: store.KeyForItem(item), Range: sh.currentPeriod()})

	case "open":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: open <#>", errUsage)
		}
		item, err := sh.itemAt(args[0])
		if err != nil {
			return false, err
		}
		if item.File == "" {
			return false, fmt.Errorf("item %s has no file", args[0])
		}
		return false, sh.submit(ctx, worker.OpenFile{Path: item.File})

	case "templates":
		return false, sh.submit(ctx, worker.FetchInvoiceTemplates{})

	case "import":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: import <file>", errUsage)
		}
		tmpl, err := template.Load(args[0], sh.opts.IDs)
		if err != nil {
			return false, err
		}
		return false, sh.submit(ctx, worker.SaveInvoiceTemplate{Template: tmpl})

	case "rmtemplate":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: rmtemplate <#>", errUsage)
		}
		tmpl, err := sh.templateAt(args[0])
		if err != nil {
			return false, err
		}
		return false, sh.submit(ctx, worker.RemoveInvoiceTemplate{Key: store.KeyForTemplate(tmpl)})

	case "names", "companies", "categories":
		var (
			req worker.Request
			t   worker.UpdateType
		)
		switch name {
		case "names":
			req, t = worker.FetchNames{}, worker.UpdateNames
		case "companies":
			req, t = worker.FetchCompanies{}, worker.UpdateCompanies
		default:
			req, t = worker.FetchCategories{}, worker.UpdateCategories
		}
		if err := sh.submit(ctx, req); err != nil {
			return false, err
		}
		sh.mu.Lock()
		values := sh.suggestions[t]
		sh.mu.Unlock()
		return false, suggestionList{Kind: name, Values: values}.WriteText(sh.out)

	default:
		return false, fmt.Errorf("unknown command %q (type 'help' for commands)", name)
	}
}

// submit queues r and waits until the worker has handled it.
func (sh *shell) submit(ctx context.Context, r worker.Request) error {
	seq, ok := sh.worker.Submit(r)
	if !ok {
		return errors.New("worker stopped")
	}
	return sh.await(ctx, seq)
}

func (sh *shell) await(ctx context.Context, seq int64) error {
	for {
		sh.mu.Lock()
		done := sh.processed >= seq
		sh.mu.Unlock()
		if done {
			return nil
		}

		select {
		case <-sh.tick:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// done is the worker's after hook.
func (sh *shell) done(seq int64) {
	sh.mu.Lock()
	sh.processed = seq
	sh.mu.Unlock()

	select {
	case sh.tick <- struct{}{}:
	default:
	}
}

// update is the worker's sink. It runs on the worker goroutine.
func (sh *shell) update(u worker.Update) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.logger.Debug().Int64("seq", u.Seq).Stringer("update", u.Type).Msg("update received")

	switch u.Type {
	case worker.UpdateNotification:
		fmt.Fprintf(sh.out, "[%s] %s\n", u.Notification.Level, u.Notification.Message)
	case worker.UpdateItems:
		sh.items = u.Items
		sh.printItems()
	case worker.UpdateTemplates:
		sh.templates = u.Templates
		sh.printTemplates()
	case worker.UpdateNames, worker.UpdateCompanies, worker.UpdateCategories:
		sh.suggestions[u.Type] = u.Values
	}
}

// printItems writes the numbered item table. Caller holds mu.
func (sh *shell) printItems() {
	fmt.Fprintf(sh.out, "Period %s to %s\n", sh.period.From, sh.period.To)
	if len(sh.items) == 0 {
		fmt.Fprintln(sh.out, "No items.")
		return
	}

	tw := newTable(sh.out)
	fmt.Fprintln(tw, "#\tDATE\tDIR\tNAME\tCOMPANY\tCATEGORY\tNET\tVAT\tGROSS")
	for i, item := range sh.items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			item.Date.Format(model.DateFormat),
			item.Direction,
			item.Name,
			item.Company,
			item.Category,
			item.Net.StringFixed(model.MoneyScale),
			item.Vat,
			item.Gross().StringFixed(model.MoneyScale),
		)
	}
	_ = tw.Flush()
}

// printTemplates writes the numbered template table. Caller holds mu.
func (sh *shell) printTemplates() {
	if len(sh.templates) == 0 {
		fmt.Fprintln(sh.out, "No invoice templates.")
		return
	}

	tw := newTable(sh.out)
	fmt.Fprintln(tw, "#\tDATE\tNUMBER\tNAME\tTO\tNET")
	for i, t := range sh.templates {
		net, _ := t.Total()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			t.Date.Format(model.DateFormat),
			t.InvoiceNumber,
			t.Name,
			t.To.Name,
			net.StringFixed(model.MoneyScale),
		)
	}
	_ = tw.Flush()
}

func (sh *shell) currentPeriod() model.DateRange {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.period
}

func (sh *shell) itemAt(arg string) (model.AccountingItem, error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(sh.items) {
		return model.AccountingItem{}, fmt.Errorf("no item #%s in the current list", arg)
	}
	return sh.items[n-1], nil
}

func (sh *shell) templateAt(arg string) (model.InvoiceTemplate, error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(sh.templates) {
		return model.InvoiceTemplate{}, fmt.Errorf("no template #%s in the current list", arg)
	}
	return sh.templates[n-1], nil
}

// complete offers command names for the first word and known values for
// name=, company= and category= arguments.
func (sh *shell) complete(line string) []string {
	var completions []string

	i := strings.LastIndexByte(line, ' ')
	if i < 0 {
		lower := strings.ToLower(line)
		for _, c := range shellCommands {
			if strings.HasPrefix(c, lower) {
				completions = append(completions, c)
			}
		}
		return completions
	}

	head, word := line[:i+1], line[i+1:]
	field, partial, ok := strings.Cut(word, "=")
	if !ok {
		return nil
	}

	var t worker.UpdateType
	switch field {
	case "name":
		t = worker.UpdateNames
	case "company":
		t = worker.UpdateCompanies
	case "category":
		t = worker.UpdateCategories
	default:
		return nil
	}

	sh.mu.Lock()
	values := sh.suggestions[t]
	sh.mu.Unlock()

	partial = strings.TrimPrefix(partial, `"`)
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(partial)) {
			completions = append(completions, head+field+"="+quoteArg(v))
		}
	}
	return completions
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, `Commands:
  list                          Show the items of the current period
  period <year> [Q1..Q4|month]  Switch the period and show its items
  add net=<amount> [field=value ...]
                                Create an item; fields: date dir name company
                                category vat file
  edit <#> field=value ...      Change item # of the current list
  rm <#>                        Delete item #
  open <#>                      Open the file attached to item #
  templates                     Show the invoice templates
  import <file>                 Import an invoice template (.cue, .yaml)
  rmtemplate <#>                Delete template #
  names | companies | categories
                                Show the values in use
  help                          Show this help
  exit / quit                   Leave the shell

Values containing spaces are quoted: name="Office rent".`)
}

// parsePeriod reads "<year> [quarter|month]".
func parsePeriod(args []string) (model.DateRange, error) {
	if len(args) < 1 || len(args) > 2 {
		return model.DateRange{}, fmt.Errorf("%w: period <year> [Q1..Q4|month]", errUsage)
	}
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return model.DateRange{}, fmt.Errorf("invalid year %q", args[0])
	}
	if len(args) == 1 {
		return model.ComputeDateRange(year, nil, nil)
	}
	if strings.HasPrefix(strings.ToUpper(args[1]), "Q") {
		q, err := model.ParseQuarter(args[1])
		if err != nil {
			return model.DateRange{}, err
		}
		return model.ComputeDateRange(year, &q, nil)
	}
	m, err := model.ParseMonth(args[1])
	if err != nil {
		return model.DateRange{}, err
	}
	return model.ComputeDateRange(year, nil, &m)
}

func hasField(args []string, field string) bool {
	for _, a := range args {
		if k, _, ok := strings.Cut(a, "="); ok && k == field {
			return true
		}
	}
	return false
}

// applyFields sets the item fields named by field=value arguments.
func applyFields(item model.AccountingItem, args []string) (model.AccountingItem, error) {
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok {
			return item, fmt.Errorf("expected field=value, got %q", arg)
		}

		var err error
		switch field {
		case "date":
			item.Date, err = model.ParseDate(value)
		case "dir", "direction":
			item.Direction, err = model.ParseDirection(value)
		case "name":
			item.Name = value
		case "company":
			item.Company = value
		case "category":
			item.Category = value
		case "net":
			item.Net, err = decimal.NewFromString(value)
			if err != nil {
				err = fmt.Errorf("invalid net amount %q", value)
			}
		case "vat":
			item.Vat, err = model.ParseVat(value)
		case "file":
			item.File = value
		case "id":
			item.ID, err = uuid.Parse(value)
		default:
			err = fmt.Errorf("unknown field %q", field)
		}
		if err != nil {
			return item, err
		}
	}
	return item, nil
}

// splitArgs splits a command line at spaces outside double quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		started bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case r == ' ' && !inQuote:
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}

func quoteArg(v string) string {
	if strings.ContainsAny(v, ` "`) {
		return `"` + strings.ReplaceAll(v, `"`, "") + `"`
	}
	return v
}
