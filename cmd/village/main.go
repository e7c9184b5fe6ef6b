package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/napolitain/village-sim/internal/advisor"
	"github.com/napolitain/village-sim/internal/config"
	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/loader"
	"github.com/napolitain/village-sim/internal/models"
	"github.com/napolitain/village-sim/internal/village"
)

var (
	configFile string
	quiet      bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "village",
		Short: "Village builder simulation",
		Long: `Build a village on a grid: place and upgrade buildings, assign
workers, host events and keep up with the daily prayers.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")

	rootCmd.AddCommand(newCatalogCmd(), newRunCmd(), newAdviseCmd(), newPlayCmd())
	return rootCmd
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List building types",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			catalog, err := loader.LoadCatalog(cfg.Village.CatalogPath)
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), catalog)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		scriptFile string
		logFile    string
		start      string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a command script",
		Long: `Replays a YAML or JSONL command script against a fresh village and
prints one row per command. Scripts ending in .zst are decompressed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			at := time.Now()
			if start != "" {
				if at, err = time.Parse(time.RFC3339, start); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}
			commands, err := game.LoadScript(scriptFile)
			if err != nil {
				return err
			}
			session, err := newSession(cfg, at)
			if err != nil {
				return err
			}

			var log *game.ResultLog
			if logFile != "" {
				if log, err = game.CreateResultLog(logFile); err != nil {
					return err
				}
			}
			rejected, err := replay(cmd.OutOrStdout(), session, commands, log)
			if log != nil {
				if cerr := log.Close(); err == nil {
					err = cerr
				}
			}
			if err != nil {
				return err
			}
			if rejected > 0 && !quiet {
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "%d of %d commands rejected\n", rejected, len(commands))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&scriptFile, "script", "s", "", "Path to a command script")
	cmd.Flags().StringVarP(&logFile, "log", "l", "", "Write results as JSONL (.zst to compress)")
	cmd.Flags().StringVar(&start, "start", "", "Village start time (RFC3339, default now)")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func newAdviseCmd() *cobra.Command {
	var (
		scriptFile string
		steps      int
		maxWait    time.Duration
		start      string
	)
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Rank the next actions by return on investment",
		Long: `Ranks every placement and upgrade available to the village by hourly
gain per resource spent. With --steps, greedily plans that many actions,
waiting for resources to accumulate when needed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			at := time.Now()
			if start != "" {
				if at, err = time.Parse(time.RFC3339, start); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}
			session, err := newSession(cfg, at)
			if err != nil {
				return err
			}
			if scriptFile != "" {
				commands, err := game.LoadScript(scriptFile)
				if err != nil {
					return err
				}
				for _, c := range commands {
					if _, err := session.Apply(c); err != nil {
						return fmt.Errorf("%s: %w", c, err)
					}
				}
			}

			out := cmd.OutOrStdout()
			if steps > 0 {
				plan, err := advisor.NewPlanner(session, maxWait, zerolog.Nop()).Plan(steps)
				printPlan(out, plan, at)
				if len(plan) < steps && !quiet {
					color.New(color.FgYellow).Fprintf(out, "Stopped after %d of %d steps: nothing affordable within %s\n", len(plan), steps, maxWait)
				}
				return err
			}
			printSuggestions(out, advisor.Rank(session.Snapshot(), session.Catalog()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&scriptFile, "script", "s", "", "Replay a command script first")
	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "Plan this many actions")
	cmd.Flags().DurationVar(&maxWait, "max-wait", advisor.DefaultMaxWait, "Longest wait for resources per action")
	cmd.Flags().StringVar(&start, "start", "", "Village start time (RFC3339, default now)")
	return cmd
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			session, err := newSession(cfg, time.Now())
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(newModel(session), tea.WithAltScreen()).Run()
			return err
		},
	}
}

// newSession builds a quiet session; the CLI reports through its own output
func newSession(cfg config.Config, start time.Time) (*game.Session, error) {
	catalog, err := loader.LoadCatalog(cfg.Village.CatalogPath)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Nop()
	tracker, err := cfg.Tracker(logger)
	if err != nil {
		return nil, err
	}
	v := village.New(catalog, start, cfg.VillageOptions(logger)...)
	return game.NewSession(v, tracker, logger), nil
}

func printCatalog(w io.Writer, catalog *models.Catalog) {
	titleColor := color.New(color.FgCyan, color.Bold)
	if !quiet {
		titleColor.Fprintln(w, "\nBuilding Catalog")
		titleColor.Fprintln(w, strings.Repeat("─", 50))
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Type", "Name", "Cost", "Yield/h", "Build", "Workers", "Unlock", "Events"}),
	)
	for _, bt := range catalog.Types() {
		def, err := catalog.Lookup(bt)
		if err != nil {
			continue
		}
		row := []string{
			string(def.Type),
			def.Name,
			formatResources(def.BaseCost),
			formatYield(def.BaseYield),
			formatDuration(time.Duration(def.ConstructionSeconds) * time.Second),
			fmt.Sprintf("%d", def.MaxWorkers),
			formatUnlock(def.Requirements),
			strings.Join(def.EventIDs(), ", "),
		}
		_ = table.Append(row)
	}
	_ = table.Render()
}

// replay applies commands in order, printing one row each. Rejections are
// reported and counted but do not stop the replay.
func replay(w io.Writer, session *game.Session, commands []game.Command, log *game.ResultLog) (int, error) {
	okColor := color.New(color.FgGreen)
	errColor := color.New(color.FgRed)

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"#", "Clock", "Command", "Status", "Coins", "Knowledge", "Virtue", "Happiness"}),
	)

	rejected := 0
	for i, cmd := range commands {
		res, err := session.Apply(cmd)
		if log != nil {
			if werr := log.Write(res, err); werr != nil {
				return rejected, werr
			}
		}

		snap := res.Snapshot
		status := okColor.Sprint("ok")
		if err != nil {
			rejected++
			status = errColor.Sprint(err.Error())
			snap = session.Snapshot()
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			snap.Now.Format("15:04:05"),
			cmd.String(),
			status,
			fmt.Sprintf("%.1f", snap.Balances.Coins),
			fmt.Sprintf("%.1f", snap.Balances.Knowledge),
			fmt.Sprintf("%.1f", snap.Balances.VirtuePoints),
			fmt.Sprintf("%d", snap.Happiness),
		})
	}
	_ = table.Render()
	return rejected, nil
}

func printSuggestions(w io.Writer, suggestions []advisor.Suggestion) {
	if !quiet {
		color.New(color.FgCyan, color.Bold).Fprintln(w, "\nNext actions by ROI")
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"#", "Action", "Building", "Cell", "Cost", "Gain/h", "ROI", "Affordable"}),
	)
	for i, s := range suggestions {
		affordable := color.RedString("no")
		if s.Affordable {
			affordable = color.GreenString("yes")
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			string(s.Kind),
			fmt.Sprintf("%s L%d", s.Type, s.Level),
			fmt.Sprintf("(%d,%d)", s.Position.X, s.Position.Y),
			formatResources(s.Cost),
			formatYield(s.Gain),
			fmt.Sprintf("%.4f", s.ROI),
			affordable,
		})
	}
	_ = table.Render()
}

func printPlan(w io.Writer, plan []advisor.Step, start time.Time) {
	if !quiet {
		color.New(color.FgCyan, color.Bold).Fprintln(w, "\nBuild plan")
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"#", "Start", "Wait", "Action", "Building", "Cell", "Cost", "Balances after"}),
	)
	for i, step := range plan {
		s := step.Suggestion
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			formatDuration(step.At.Sub(start)),
			formatDuration(step.Waited),
			string(s.Kind),
			fmt.Sprintf("%s L%d", s.Type, s.Level),
			fmt.Sprintf("(%d,%d)", s.Position.X, s.Position.Y),
			formatResources(s.Cost),
			formatResources(step.Balances),
		})
	}
	_ = table.Render()
}

func formatResources(r models.Resources) string {
	parts := make([]string, 0, 3)
	if r.Coins != 0 {
		parts = append(parts, fmt.Sprintf("%.0fc", r.Coins))
	}
	if r.Knowledge != 0 {
		parts = append(parts, fmt.Sprintf("%.0fk", r.Knowledge))
	}
	if r.VirtuePoints != 0 {
		parts = append(parts, fmt.Sprintf("%.0fv", r.VirtuePoints))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func formatYield(y models.Yield) string {
	return formatResources(y.Over(time.Hour))
}

func formatUnlock(req models.UnlockRequirements) string {
	var parts []string
	if req.Level > 1 {
		parts = append(parts, fmt.Sprintf("level %d", req.Level))
	}
	for _, b := range req.Buildings {
		parts = append(parts, fmt.Sprintf("%d× %s", b.Count, b.Type))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
