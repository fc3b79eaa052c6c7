package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reveal/internal/bridge"
	"reveal/internal/decision"
	"reveal/internal/events"
	"reveal/internal/nudge"
	"reveal/internal/source"
	"reveal/internal/tracking"
)

func (a *app) runCmd() *cobra.Command {
	var file, eventsPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo host with a live nudge overlay",
		Long: `Run a demo terminal page with the nudge overlay on top.

Decisions come from the watched file (--file, decisions.file or
REVEAL_DECISION_FILE); rewrite it with "reveal sample -o <file>" to show a new
nudge, delete it to clear. Without a file the demo starts with a welcome nudge;
press n to cycle through the built-in ones.

--events reads JSON-lines event envelopes ({"type":"reveal:dismiss",
"detail":{"id":...,"reason":...}}) from a file or named pipe and injects them
as if the user had produced them.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{tuiAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = a.cfg.Decisions.File
			}
			return a.runOverlay(cmd, file, eventsPath)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "decision file to watch")
	cmd.Flags().StringVar(&eventsPath, "events", "", "file or pipe of event envelopes to inject")
	return cmd
}

func (a *app) runOverlay(cmd *cobra.Command, file, eventsPath string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, err := a.openSinks()
	if err != nil {
		return err
	}
	defer sinks.close(cmd.OutOrStdout())

	host := newDemoHost()
	track := tracking.Callback(sinks.sink)
	engine := nudge.New(nudge.Options{
		Callbacks: bridge.Callbacks{
			OnTrack: func(kind, name string, payload map[string]any) {
				track(kind, name, payload)
				host.note(name, payload)
			},
			OnDismiss: func(id string) {
				a.logger.Debug("nudge dismissed", zap.String("nudgeId", id))
			},
			OnActionClick: func(id string) {
				a.logger.Info("nudge action clicked", zap.String("nudgeId", id))
			},
		},
		Targets:    host,
		Defaults:   a.cfg.Defaults.MapOptions(),
		MountPoint: a.cfg.Overlay.MountPoint,
		Estimated:  a.cfg.Overlay.Estimated(),
		MaxWidth:   a.cfg.Overlay.MaxWidth,
		Retries:    a.cfg.Overlay.LayoutRetries,
	})
	defer engine.Close()

	overlay := nudge.Wrap(host, engine)
	p := tea.NewProgram(overlay,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	overlay.Attach(p)

	src, err := a.openSource(ctx, file)
	if err != nil {
		return err
	}

	var eventsIn io.ReadCloser
	if eventsPath != "" {
		f, err := os.Open(eventsPath)
		if err != nil {
			if fs, ok := src.(*source.FileSource); ok {
				fs.Stop()
			}
			return fmt.Errorf("failed to open events: %w", err)
		}
		eventsIn = f
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := source.Forward(gctx, src, func(d *decision.WireNudgeDecision) {
			p.Send(nudge.DecisionMsg{Decision: d})
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if eventsIn != nil {
		g.Go(func() error {
			return a.forwardEnvelopes(gctx, eventsIn, func(msg tea.Msg) { p.Send(msg) })
		})
	}

	err = g.Wait()
	if fs, ok := src.(*source.FileSource); ok {
		fs.Stop()
		st := fs.Stats()
		a.logger.Info("decision watcher stats",
			zap.Int("published", st.Published),
			zap.Int("unchanged", st.Unchanged),
			zap.Int("decode_errors", st.DecodeErrors),
			zap.Int("watch_errors", st.WatchErrors))
	}
	return err
}

// openSource watches file when one is configured. Otherwise it returns a
// channel source preloaded with the first demo decision.
func (a *app) openSource(ctx context.Context, file string) (source.Source, error) {
	if file == "" {
		ch := source.NewChannelSource(1)
		if err := ch.Publish(ctx, demoDecision(0)); err != nil {
			return nil, fmt.Errorf("failed to queue welcome decision: %w", err)
		}
		ch.Close()
		return ch, nil
	}

	fs, err := source.NewFileSource(file)
	if err != nil {
		return nil, err
	}
	if err := fs.Start(ctx); err != nil {
		fs.Stop()
		return nil, err
	}
	a.logger.Info("watching decision file", zap.String("path", fs.Path()))
	return fs, nil
}

// forwardEnvelopes decodes one envelope per line and sends it to the program.
// Bad lines are logged and skipped. r is closed when ctx ends so a blocked
// read on a pipe returns.
func (a *app) forwardEnvelopes(ctx context.Context, r io.ReadCloser, send func(tea.Msg)) error {
	stop := context.AfterFunc(ctx, func() { _ = r.Close() })
	defer stop()
	defer r.Close()

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		env, err := events.DecodeEnvelope(line)
		if err != nil {
			a.logger.Warn("skipping event line", zap.Error(err))
			continue
		}
		send(nudge.EnvelopeMsg{Envelope: env})
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	return nil
}
