package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/structura/internal/events"
	"github.com/aristath/structura/internal/modules/calendar"
	"github.com/aristath/structura/internal/modules/payoff"
	"github.com/aristath/structura/internal/modules/products"
	"github.com/aristath/structura/internal/modules/schedule"
	"github.com/aristath/structura/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "schedulectl",
		Short: "Preview structured product observation schedules",
		Long: `schedulectl runs the schedule engine locally: it generates observation
schedules for a product definition, lists regional holidays and describes
the supported payoff variants.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newHolidaysCmd())
	root.AddCommand(newVariantsCmd())
	return root
}

// --- Generate Command ---

type generateOptions struct {
	name        string
	variant     string
	trade       string
	value       string
	final       string
	frequency   string
	coolOff     int
	stepDown    float64
	autocall    float64
	barrier     float64
	underlyings []string
	regions     string
	params      []string
	review      bool
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	defaults := schedule.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the outbound bundle of a product definition",
		Example: `  schedulectl generate --trade 2025-01-15 --final 2026-01-15 --underlyings SX5E,SPX
  schedulectl generate --variant himalaya --trade 2025-01-15 --final 2028-01-15 --underlyings A,B,C
  schedulectl generate --variant phoenix --param memoryCoupon=true --param couponRate=2.5 --review`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "", "product name")
	f.StringVar(&opts.variant, "variant", string(payoff.Phoenix), "payoff variant")
	f.StringVar(&opts.trade, "trade", "", "trade date (YYYY-MM-DD)")
	f.StringVar(&opts.value, "value", "", "value date (YYYY-MM-DD), defaults to trade date plus the settlement delay")
	f.StringVar(&opts.final, "final", "", "final observation date (YYYY-MM-DD)")
	f.StringVar(&opts.frequency, "frequency", string(defaults.Frequency), "observation frequency (monthly, quarterly, semi-annually, annually)")
	f.IntVar(&opts.coolOff, "cool-off", defaults.CoolOffPeriods, "leading periods that cannot autocall")
	f.Float64Var(&opts.stepDown, "step-down", defaults.StepDownValue, "autocall level decrease per callable period")
	f.Float64Var(&opts.autocall, "autocall", defaults.InitialAutocallLevel, "initial autocall level (%)")
	f.Float64Var(&opts.barrier, "coupon-barrier", defaults.InitialCouponBarrier, "coupon barrier (%)")
	f.StringSliceVar(&opts.underlyings, "underlyings", nil, "comma-separated underlying identifiers")
	f.StringVar(&opts.regions, "regions", "US,EU", "holiday regions for business-day adjustment")
	f.StringArrayVar(&opts.params, "param", nil, "structure parameter as key=value (repeatable)")
	f.BoolVar(&opts.review, "review", false, "print the validation review instead of the bundle")
	_ = cmd.MarkFlagRequired("trade")
	_ = cmd.MarkFlagRequired("final")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	dates, err := parseDates(opts.trade, opts.value, opts.final)
	if err != nil {
		return err
	}
	frequency, ok := schedule.ParseFrequency(opts.frequency)
	if !ok {
		return fmt.Errorf("unknown frequency %q", opts.frequency)
	}
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}

	log := cliLogger(cmd)
	svc := products.NewService(
		products.NewMemoryStore(),
		events.NewManager(events.NewBus(), log),
		products.Options{},
		log,
	)

	draft, err := svc.Create(context.Background(), products.CreateRequest{
		Name:    opts.name,
		Variant: opts.variant,
		Dates:   dates,
		Config: &schedule.Config{
			Frequency:            frequency,
			CoolOffPeriods:       opts.coolOff,
			StepDownValue:        opts.stepDown,
			InitialAutocallLevel: opts.autocall,
			InitialCouponBarrier: opts.barrier,
		},
		Underlyings: opts.underlyings,
		Regions:     opts.regions,
		Params:      params,
	})
	if err != nil {
		return err
	}

	if opts.review {
		return printJSON(cmd.OutOrStdout(), products.Review(draft))
	}
	return printJSON(cmd.OutOrStdout(), products.BundleOf(draft))
}

func parseDates(trade, value, final string) (schedule.ProductDates, error) {
	var dates schedule.ProductDates
	var err error
	if dates.TradeDate, err = parseOptionalDate("trade", trade); err != nil {
		return dates, err
	}
	if dates.ValueDate, err = parseOptionalDate("value", value); err != nil {
		return dates, err
	}
	if dates.FinalObservationDate, err = parseOptionalDate("final", final); err != nil {
		return dates, err
	}
	return dates, nil
}

func parseOptionalDate(flag, raw string) (calendar.Date, error) {
	if raw == "" {
		return calendar.Date{}, nil
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return d, nil
}

// parseParams reads key=value pairs. Numbers and booleans are typed, the rest stay strings.
func parseParams(pairs []string) (payoff.Values, error) {
	values := payoff.Values{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}
		raw = strings.TrimSpace(raw)
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			values[key] = n
		} else if b, err := strconv.ParseBool(raw); err == nil {
			values[key] = b
		} else {
			values[key] = raw
		}
	}
	return values, nil
}

// --- Holidays Command ---

func newHolidaysCmd() *cobra.Command {
	var (
		region string
		year   int
	)

	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List the holidays of a region for a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := calendar.ParseRegions(region)
			if err != nil {
				return err
			}
			if len(set) != 1 {
				return fmt.Errorf("exactly one region expected, got %q", region)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tDAY\tHOLIDAY")
			for _, h := range calendar.HolidaysFor(set[0], year) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", h.Date, h.Date.Weekday().String()[:3], h.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&region, "region", string(calendar.RegionUS), "holiday region ("+calendar.RegionSet(calendar.Regions()).String()+")")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year")
	return cmd
}

// --- Variants Command ---

func newVariantsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "variants",
		Short: "Describe the supported payoff variants",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := payoff.Catalog()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), catalog)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VARIANT\tTITLE\tSCHEDULE\tKEYS")
			for _, d := range catalog {
				keys := make([]string, len(d.Keys))
				for i, k := range d.Keys {
					keys[i] = k.Key
				}
				layout := "-"
				if d.UsesSchedule {
					layout = string(d.Layout)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Variant, d.Title, layout, strings.Join(keys, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cliLogger(cmd *cobra.Command) zerolog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.New(logger.Config{
		Level:  level,
		Pretty: true,
		Output: os.Stderr,
	})
}
