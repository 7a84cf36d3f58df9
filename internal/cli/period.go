package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/model"
)

// periodFlags selects the date range a command works on: a year and
// optionally one quarter or one month of it.
type periodFlags struct {
	Year    int
	Quarter string
	Month   string
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Year, "year", 0, "year (default current year)")
	cmd.Flags().StringVar(&p.Quarter, "quarter", "", "quarter (Q1..Q4)")
	cmd.Flags().StringVar(&p.Month, "month", "", "month (1..12 or name)")
	cmd.MarkFlagsMutuallyExclusive("quarter", "month")
}

// dateRange resolves the flags against now.
func (p *periodFlags) dateRange(now time.Time) (model.DateRange, error) {
	year := p.Year
	if year == 0 {
		year = now.Year()
	}

	var (
		quarter *model.Quarter
		month   *time.Month
	)
	if p.Quarter != "" {
		q, err := model.ParseQuarter(p.Quarter)
		if err != nil {
			return model.DateRange{}, err
		}
		quarter = &q
	}
	if p.Month != "" {
		m, err := model.ParseMonth(p.Month)
		if err != nil {
			return model.DateRange{}, err
		}
		month = &m
	}

	r, err := model.ComputeDateRange(year, quarter, month)
	if err != nil {
		return model.DateRange{}, fmt.Errorf("period: %w", err)
	}
	return r, nil
}
