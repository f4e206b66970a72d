package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thatsimonsguy/light-meter/db"
	"github.com/thatsimonsguy/light-meter/internal/adjust"
	"github.com/thatsimonsguy/light-meter/internal/api"
	"github.com/thatsimonsguy/light-meter/internal/config"
	"github.com/thatsimonsguy/light-meter/internal/display"
	"github.com/thatsimonsguy/light-meter/internal/env"
	"github.com/thatsimonsguy/light-meter/internal/exposure"
	"github.com/thatsimonsguy/light-meter/internal/model"
	"github.com/thatsimonsguy/light-meter/internal/state"
	"github.com/thatsimonsguy/light-meter/internal/store"
	"github.com/thatsimonsguy/light-meter/internal/tables"
	"github.com/thatsimonsguy/light-meter/system/startup"
)

// openSettings opens the settings store the config points at. The returned
// close func releases the database when sqlite storage is used.
func openSettings(cfg config.Config) (*store.Store, func(), error) {
	if cfg.Storage != config.StorageSQLite {
		return store.New(store.NewFileRegion(cfg.RegionFile)), func() {}, nil
	}
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return store.New(db.NewRegion(conn, store.RegionSize)), func() { conn.Close() }, nil
}

func withSettings(fn func(cmd *cobra.Command, s *store.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadFile(flagConfig)
		if err != nil {
			return err
		}
		s, closeFn, err := openSettings(cfg)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(cmd, s)
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored settings",
		RunE: withSettings(func(cmd *cobra.Command, s *store.Store) error {
			settings, err := s.Load()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(api.SettingsFor(settings))
		}),
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Overwrite the stored settings with factory defaults",
		RunE: withSettings(func(cmd *cobra.Command, s *store.Store) error {
			if err := s.Save(model.DefaultSettings()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "settings reset to defaults")
			return nil
		}),
	}
}

func newComputeCmd() *cobra.Command {
	var lux float64
	var mode, metering string
	settings := model.DefaultSettings()

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Solve an exposure offline, as the meter would show it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if settings.Mode, err = model.ParseComputeMode(mode); err != nil {
				return err
			}
			if settings.Metering, err = model.ParseMeteringType(metering); err != nil {
				return err
			}
			return describeCompute(cmd.OutOrStdout(), lux, settings)
		},
	}

	cmd.Flags().Float64Var(&lux, "lux", 0, "Illuminance in lux")
	cmd.Flags().StringVar(&mode, "mode", model.ModeAperture.String(), "Compute mode (aperture, shutter, iso, nd)")
	cmd.Flags().StringVar(&metering, "metering", model.MeteringIncident.String(), "Metering type (incident, reflected)")
	cmd.Flags().Int8Var(&settings.ISOIndex, "iso-index", settings.ISOIndex, "ISO stop index, 0 is ISO 100")
	cmd.Flags().Int8Var(&settings.ApertureIndex, "aperture-index", settings.ApertureIndex, "Aperture index on the 2*log2(N) scale, 0 is f/1.0")
	cmd.Flags().Int8Var(&settings.ShutterIndex, "shutter-index", settings.ShutterIndex, "Shutter stop index, 6 is 1/60s")
	cmd.Flags().Int8Var(&settings.NDFilterIndex, "nd-index", settings.NDFilterIndex, "ND filter stops")
	_ = cmd.MarkFlagRequired("lux")
	return cmd
}

// describeCompute prints the reading and the page the meter would draw for it.
func describeCompute(w io.Writer, lux float64, settings model.Settings) error {
	if err := tables.CheckSettings(settings); err != nil {
		return fmt.Errorf("settings out of range: %w", err)
	}

	r, err := exposure.Compute(lux, settings)
	view := display.Build(state.Snapshot{Settings: settings, Reading: r}, adjust.DefaultMatrix)

	fmt.Fprintf(w, "lux:       %g\n", lux)
	fmt.Fprintf(w, "metering:  %s\n", view.Metering)
	fmt.Fprintf(w, "ev:        %s\n", view.EV)
	fmt.Fprintf(w, "%-10s %s\n", settings.Mode.String()+":", view.Headline)
	for _, f := range view.Fields {
		if f.Title == "" {
			continue
		}
		fmt.Fprintf(w, "  %-9s %s\n", f.Title, f.Value)
	}
	if err != nil {
		fmt.Fprintf(w, "note:      %v\n", err)
	}
	return nil
}

func newReadingsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "readings",
		Short: "List the most recent logged readings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(flagConfig)
			if err != nil {
				return err
			}
			conn, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer conn.Close()

			readings, err := db.RecentReadings(conn, limit)
			if err != nil {
				return err
			}
			return printReadings(cmd.OutOrStdout(), readings)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of readings to show")
	return cmd
}

func nullFloat(v sql.NullFloat64, precision int) string {
	if !v.Valid || math.IsNaN(v.Float64) {
		return "--"
	}
	return fmt.Sprintf("%.*f", precision, v.Float64)
}

func printReadings(w io.Writer, readings []db.LoggedReading) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tLUX\tEV\tOUTPUT\tMODE\tMETERING")
	for _, r := range readings {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\t%s\t%s\n",
			r.TakenAt.Local().Format("2006-01-02 15:04:05"),
			r.Lux,
			nullFloat(r.EV, 2),
			nullFloat(r.Output, 4),
			r.Mode,
			r.Metering)
	}
	return tw.Flush()
}

func newInstallServiceCmd() *cobra.Command {
	var run bool

	cmd := &cobra.Command{
		Use:   "install-service",
		Short: "Write the GPIO boot script and the systemd units",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(flagConfig)
			if err != nil {
				return err
			}
			env.Cfg = &cfg

			if err := startup.WriteStartupScript(); err != nil {
				return fmt.Errorf("write boot script: %w", err)
			}
			if err := startup.InstallStartupService(); err != nil {
				return fmt.Errorf("install gpio service: %w", err)
			}
			if err := startup.InstallMeterService(); err != nil {
				return fmt.Errorf("install meter service: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, %s and %s\n", cfg.BootScriptFilePath, cfg.GPIOServicePath, cfg.ServicePath)

			if run {
				return startup.RunStartupScript()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&run, "run", false, "Also run the boot script now")
	return cmd
}
