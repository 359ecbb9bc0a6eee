package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"made/internal/monitor"
	"made/internal/types"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor [report-id]",
	Short: "Watch one agent's live memory degradation",
	Long: `Runs a degradation session in the foreground with a live terminal
display: game clock, real timer, retention gauge, and the utterance the
agent produces at every day boundary. Without an argument the newest
record across all agents is watched.

The session ends when the memory reaches the reconstruction floor or on
ctrl-c. Day boundaries are archived the same way server-started monitors
archive them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// The display owns the terminal; structured logs stay out of the way
	// unless verbose output was asked for.
	sessionLogger := zap.NewNop()
	if verbose {
		sessionLogger = logger
	}

	eng, cleanup, err := buildEngine(ctx, cfg, sessionLogger)
	if err != nil {
		return err
	}
	defer cleanup()

	var rec types.CognitiveRecord
	if len(args) == 1 {
		rec, err = eng.Record(ctx, args[0])
	} else {
		rec, err = eng.LatestRecord(ctx)
	}
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}

	// Foreground sessions run outside the manager: the terminal is the only
	// observer and ctrl-c is the only stop. The display reads the effective
	// clock scale off the session config rather than the raw file value.
	scfg := eng.SessionConfig(rec, nil)
	display := newMonitorDisplay(cmd.OutOrStdout(), scfg.ScaleSecondsPerDay)
	scfg.Observer = display

	session := monitor.NewSession(scfg)
	if err := session.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(cmd.OutOrStdout(), "\nMonitor stopped.")
			return nil
		}
		return err
	}
	return nil
}

// Status colors follow the retention bands: green while recall is clear,
// amber once it turns uncertain, red at the reconstruction floor.
var (
	monitorClearStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	monitorWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")).Bold(true)
	monitorDangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
	monitorTitleStyle  = lipgloss.NewStyle().Bold(true)
	monitorFaintStyle  = lipgloss.NewStyle().Faint(true)
)

func monitorStatusStyle(st monitor.Status) lipgloss.Style {
	switch st {
	case monitor.StatusClear:
		return monitorClearStyle
	case monitor.StatusUncertain:
		return monitorWarnStyle
	default:
		return monitorDangerStyle
	}
}

const (
	monitorRuleWidth = 50
	retentionSlots   = 20
)

// monitorDisplay renders the live screen. Callbacks arrive on the session
// goroutine, so no locking is needed; the latest day event is kept sticky
// because every tick clears the screen.
type monitorDisplay struct {
	out   io.Writer
	scale float64
	day   *monitor.DayEvent
}

func newMonitorDisplay(out io.Writer, scale float64) *monitorDisplay {
	return &monitorDisplay{out: out, scale: scale}
}

func (d *monitorDisplay) Tick(state monitor.State) { d.render(state, false) }

func (d *monitorDisplay) DayBoundary(ev monitor.DayEvent) {
	d.day = &ev
}

func (d *monitorDisplay) Halt(state monitor.State) { d.render(state, true) }

func (d *monitorDisplay) render(state monitor.State, halted bool) {
	totalGameHours := state.Diag.GameDays * 24
	style := monitorStatusStyle(state.Status)

	var b strings.Builder
	b.WriteString("\x1b[2J\x1b[H") // clear screen, cursor home

	rule := strings.Repeat("=", monitorRuleWidth)
	b.WriteString(rule + "\n")
	b.WriteString(monitorTitleStyle.Render(" MADE ENGINE: LIVE DEGRADATION MONITOR") + "\n")
	b.WriteString(rule + "\n")

	fmt.Fprintf(&b, "Report ID:    %s\n", state.ReportID)
	fmt.Fprintf(&b, "Game Clock:   Day %d | %02d:%02d\n",
		state.Day, int(totalGameHours)%24, int(totalGameHours*60)%60)
	fmt.Fprintf(&b, "Real Timer:   %dm %ds (%.0fs = 1 Day)\n",
		state.Diag.RealSeconds/60, state.Diag.RealSeconds%60, d.scale)
	fmt.Fprintf(&b, "P-Factor:     %.4f\n", state.PFactor)
	fmt.Fprintf(&b, "RETENTION:    %s\n", style.Render(fmt.Sprintf("%.2f%%", state.Retention*100)))
	fmt.Fprintf(&b, "STATUS:       %s\n", style.Render(state.Status.String()))

	b.WriteString(strings.Repeat("-", monitorRuleWidth) + "\n")
	b.WriteString(retentionBar(state) + "\n")

	if d.day != nil {
		fmt.Fprintf(&b, "\nNEW DAY: Day %d has started!\n", d.day.Day)
		switch {
		case d.day.Err != nil:
			fmt.Fprintf(&b, "Generation failed: %v\n", d.day.Err)
		case d.day.Fallback:
			fmt.Fprintf(&b, "NPC SAYS: %s %s\n", d.day.Utterance, monitorFaintStyle.Render("(template)"))
		default:
			fmt.Fprintf(&b, "NPC SAYS: %s\n", d.day.Utterance)
		}
	}

	if halted {
		b.WriteString("\n" + monitorDangerStyle.Render("THRESHOLD REACHED: Memory degraded to 30%.") + "\n")
		fmt.Fprintf(&b, "Total Time: Day %d, %dh %dm\n",
			state.Day, int(totalGameHours)%24, int(totalGameHours*60)%60)
		b.WriteString("Reconstruction is now required.\n")
	}

	fmt.Fprint(d.out, b.String())
}

// retentionBar draws the 20-slot gauge. Retention can start above 1.0 for
// strong stabilities, so the fill is capped at the gauge width.
func retentionBar(state monitor.State) string {
	filled := int(state.Retention * retentionSlots)
	if filled > retentionSlots {
		filled = retentionSlots
	}
	if filled < 0 {
		filled = 0
	}
	bar := monitorStatusStyle(state.Status).Render(strings.Repeat("█", filled))
	return "[" + bar + strings.Repeat(" ", retentionSlots-filled) + "]"
}
