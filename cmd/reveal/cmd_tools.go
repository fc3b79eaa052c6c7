package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"reveal/internal/decision"
	"reveal/internal/position"
	"reveal/internal/template"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Decode a wire decision and print its UI form",
		Long: `Decode a wire decision against the schema, apply the configured defaults
and print the resulting UI decision as YAML. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read decision: %w", err)
			}

			wire, err := decision.Decode(data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if wire == nil {
				fmt.Fprintln(out, "# empty decision: clears the overlay")
				return nil
			}
			if wire.Expired(time.Now()) {
				fmt.Fprintf(out, "# expired at %s: would be ignored\n", wire.ExpiresAt.Format(time.RFC3339))
			}

			if !template.NewRouter().Known(wire.TemplateID) {
				fmt.Fprintf(out, "# template %q has no renderer: nothing would be shown\n", wire.TemplateID)
			}

			opts := a.cfg.Defaults.MapOptions()
			ui := decision.MapWireToUI(*wire, &opts)
			a.logger.Debug("decision validated", zap.String("nudgeId", ui.ID), zap.String("template", string(ui.TemplateID)))

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(ui); err != nil {
				return fmt.Errorf("failed to encode decision: %w", err)
			}
			return enc.Close()
		},
	}
}

func (a *app) positionCmd() *cobra.Command {
	var (
		quadrant string
		viewport string
		overlay  string
		target   string
	)
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Print where an overlay would be placed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vp, err := parseSize(viewport)
			if err != nil {
				return fmt.Errorf("--viewport: %w", err)
			}
			ov, err := parseSize(overlay)
			if err != nil {
				return fmt.Errorf("--overlay: %w", err)
			}

			var (
				res   position.Result
				arrow position.Arrow
			)
			if target != "" {
				var r position.Rect
				if _, err := fmt.Sscanf(target, "%d,%d,%d,%d", &r.Top, &r.Left, &r.Width, &r.Height); err != nil {
					return fmt.Errorf("--target: want top,left,width,height: %w", err)
				}
				res, arrow = position.Anchor(r, ov, vp)
			} else {
				q := position.Normalize(decision.Quadrant(quadrant))
				res = position.Compute(q, ov, vp)
				arrow = position.ArrowFor(q, ov.Width)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "top=%d left=%d arrow=%s edge=%s offset=%d\n",
				res.Top, res.Left, arrow.Glyph(), arrow.Edge, arrow.Offset)
			return nil
		},
	}
	cmd.Flags().StringVarP(&quadrant, "quadrant", "q", string(decision.DefaultQuadrant), "viewport quadrant")
	cmd.Flags().StringVar(&viewport, "viewport", "80x24", "viewport size WxH")
	cmd.Flags().StringVar(&overlay, "overlay", fmt.Sprintf("%dx%d", position.EstimatedSize.Width, position.EstimatedSize.Height), "overlay size WxH")
	cmd.Flags().StringVar(&target, "target", "", "anchor box top,left,width,height")
	return cmd
}

func (a *app) sampleCmd() *cobra.Command {
	var (
		output   string
		template string
		quadrant string
		title    string
		body     string
		cta      string
		slot     string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a sample wire decision with a fresh nudge id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wire := decision.WireNudgeDecision{
				NudgeID:    uuid.NewString(),
				TemplateID: decision.TemplateID(template),
				Title:      title,
				Body:       body,
				CTAText:    cta,
				SlotID:     slot,
				Quadrant:   decision.Quadrant(quadrant),
			}
			if ttl > 0 {
				at := time.Now().Add(ttl).UTC().Truncate(time.Second)
				wire.ExpiresAt = &at
			}

			data, err := json.MarshalIndent(wire, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal decision: %w", err)
			}
			if _, err := decision.Decode(data); err != nil {
				return err
			}
			data = append(data, '\n')

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			// Write then rename so a watching `reveal run` never sees half a file.
			tmp := output + ".tmp"
			if err := os.WriteFile(tmp, data, 0644); err != nil {
				return fmt.Errorf("failed to write decision: %w", err)
			}
			if err := os.Rename(tmp, output); err != nil {
				return fmt.Errorf("failed to write decision: %w", err)
			}
			a.logger.Info("sample decision written", zap.String("path", output), zap.String("nudgeId", wire.NudgeID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&template, "template", "t", string(decision.TemplateTooltip), "template id")
	cmd.Flags().StringVarP(&quadrant, "quadrant", "q", "", "viewport quadrant")
	cmd.Flags().StringVar(&title, "title", "Did you know?", "title")
	cmd.Flags().StringVar(&body, "body", "Press / to search everything.", "body")
	cmd.Flags().StringVar(&cta, "cta", "Show me", "call to action")
	cmd.Flags().StringVar(&slot, "slot", "", "anchor slot id")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "expire after this long")
	return cmd
}

func parseSize(s string) (position.Size, error) {
	var sz position.Size
	if _, err := fmt.Sscanf(s, "%dx%d", &sz.Width, &sz.Height); err != nil {
		return sz, fmt.Errorf("want WxH, got %q", s)
	}
	if sz.Width < 0 || sz.Height < 0 {
		return sz, fmt.Errorf("negative size %q", s)
	}
	return sz, nil
}
