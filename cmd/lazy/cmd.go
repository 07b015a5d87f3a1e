package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/lazy/internal/autodiff"
	"github.com/born-ml/lazy/internal/config"
	"github.com/born-ml/lazy/internal/engine"
	"github.com/born-ml/lazy/internal/graph"
	"github.com/born-ml/lazy/internal/logutil"
	"github.com/born-ml/lazy/internal/ops"
	"github.com/born-ml/lazy/internal/tensor"
)

const version = "v0.1.0-dev"

// NewCLI builds the root command.
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lazy",
		Short: "Lazy array runtime",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}

	cobra.EnableCommandSorting = false

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lazy %s\n", version)
		},
	}

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List compute devices",
		Args:  cobra.NoArgs,
		RunE:  DevicesHandler,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show LAZY_* settings",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printConfig(cmd.OutOrStdout(), config.Load())
		},
	}

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Evaluate c = a*b + a and its gradients",
		Args:  cobra.NoArgs,
		RunE:  DemoHandler,
	}
	demoCmd.Flags().String("format", "table", "Graph output format (table, json, cbor)")

	rootCmd.AddCommand(
		versionCmd,
		devicesCmd,
		configCmd,
		demoCmd,
	)

	return rootCmd
}

func newEngine(cmd *cobra.Command) (*engine.Engine, error) {
	cfg := config.Load()
	return engine.New(cfg, logutil.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel()))
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("\t")
	return table
}

func DevicesHandler(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	infos, err := e.Devices().Devices()
	if err != nil {
		return err
	}

	table := newTable(cmd.OutOrStdout(), "DEVICE", "NAME", "VENDOR", "BACKEND", "CORES")
	for _, info := range infos {
		cores := ""
		if info.Cores > 0 {
			cores = strconv.Itoa(info.Cores)
		}
		table.Append([]string{info.Device.String(), info.Name, info.Vendor, info.Backend, cores})
	}
	table.Render()
	return nil
}

func printConfig(out io.Writer, cfg config.Config) {
	vars := cfg.AsMap()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	table := newTable(out, "NAME", "VALUE", "DESCRIPTION")
	for _, k := range keys {
		v := vars[k]
		table.Append([]string{v.Name, fmt.Sprintf("%v", v.Value), v.Description})
	}
	table.Render()
}

func DemoHandler(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	switch format {
	case "table", "json", "cbor":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := graph.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.DefaultDevice)
	if err != nil {
		return err
	}
	b, err := graph.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, tensor.DefaultDevice)
	if err != nil {
		return err
	}
	ab, err := ops.Mul(a, b)
	if err != nil {
		return err
	}
	c, err := ops.Add(ab, a)
	if err != nil {
		return err
	}
	grads, err := autodiff.VJP([]*graph.Array{c}, nil, []*graph.Array{a, b})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "table" {
		fmt.Fprintln(out, "pending graph:")
		if err := graph.Dump(out, c); err != nil {
			return err
		}
	}

	targets := append([]*graph.Array{c}, grads...)
	if err := e.Materialize(cmd.Context(), targets...); err != nil {
		return err
	}

	switch format {
	case "json":
		ex, err := graph.Snapshot(targets...)
		if err != nil {
			return err
		}
		data, err := ex.IndentedJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	case "cbor":
		ex, err := graph.Snapshot(targets...)
		if err != nil {
			return err
		}
		data, err := ex.MarshalCBOR()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	table := newTable(out, "ARRAY", "VALUE")
	for _, row := range []struct {
		name string
		arr  *graph.Array
	}{{"c = a*b + a", c}, {"dc/da", grads[0]}, {"dc/db", grads[1]}} {
		vals, err := row.arr.Float32s()
		if err != nil {
			return err
		}
		table.Append([]string{row.name, fmt.Sprint(vals)})
	}
	table.Render()

	stats := e.Evaluator().Stats()
	fmt.Fprintf(out, "\nruns=%d dispatches=%d cross-stream waits=%d pool hits=%d\n",
		stats.Runs, stats.Dispatches, stats.CrossStreamWaits, stats.Pool.Hits)
	return nil
}
