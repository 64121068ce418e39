package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/gadgeto/internal/domain/bundle"
	"github.com/GriffinCanCode/gadgeto/internal/domain/engine"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/logging"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/store"
	"github.com/GriffinCanCode/gadgeto/internal/providers/backend"
)

// The commands below work on the store directly and never contact the agent,
// except clear, which also discards the cached backend session.

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved session to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			b, _, err := readSaved(cmd.Context(), st)
			if err != nil {
				return err
			}
			content, err := bundle.EncodePretty(b)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = bundle.Filename(b)
			}
			if path == "-" {
				_, err := cmd.OutOrStdout().Write(content)
				return err
			}
			if err := writeArtifact(path, content); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d messages to %s\n", len(b.Data.Messages), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default gogogadgeto-session-DATE.json, - for stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the saved session with an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			b, raw, err := engine.ReadArtifact(f)
			if err != nil {
				return err
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if err := st.Set(ctx, engine.SessionKey, raw); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}
			if b.BackendSessionID != nil && *b.BackendSessionID != "" {
				if err := st.Set(ctx, engine.BackendSessionKey, []byte(*b.BackendSessionID)); err != nil {
					return fmt.Errorf("persist backend session: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d messages and %d findings\n", len(b.Data.Messages), len(b.Data.TableData))
			return nil
		},
	}
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			_, raw, err := readSaved(cmd.Context(), st)
			if err != nil {
				return err
			}
			info, err := bundle.Summarize(raw)
			if err != nil {
				return err
			}
			printInfo(newLockedWriter(cmd.OutOrStdout()), info)
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved session and its backend session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "%s [y/N] ", engine.ClearPrompt)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if !isYes(answer) {
					fmt.Fprintln(out, "Kept the session")
					return nil
				}
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if raw, err := st.Get(ctx, engine.BackendSessionKey); err == nil && len(raw) > 0 {
				a.deleteRemote(ctx, string(raw))
			}
			for _, key := range []string{engine.SessionKey, engine.BackendSessionKey} {
				if err := st.Remove(ctx, key); err != nil {
					return err
				}
			}
			fmt.Fprintln(out, "Session cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// deleteRemote discards the backend session; failure only gets logged
func (a *app) deleteRemote(ctx context.Context, sessionID string) {
	logger, err := a.logger()
	if err != nil {
		return
	}
	defer func() { _ = logger.Sync() }()

	client := backend.New(backend.Config{
		BaseURL: a.cfg.Backend.URL,
		Timeout: 10 * time.Second,
	}, backend.WithLogger(logger))
	if err := client.Delete(ctx, sessionID); err != nil {
		logger.Warn("Failed to delete backend session", logging.SessionID(sessionID), zap.Error(err))
	}
}

func readSaved(ctx context.Context, st store.Store) (bundle.Bundle, []byte, error) {
	raw, err := st.Get(ctx, engine.SessionKey)
	if errors.Is(err, store.ErrNotFound) {
		return bundle.Bundle{}, nil, engine.ErrNoBundle
	}
	if err != nil {
		return bundle.Bundle{}, nil, err
	}
	b, err := bundle.Decode(raw)
	if err != nil {
		return bundle.Bundle{}, nil, err
	}
	return b, raw, nil
}

func printInfo(out *lockedWriter, info bundle.Info) {
	saved := time.UnixMilli(info.Timestamp).Format(time.RFC1123)
	out.Printf("Saved:     %s\n", saved)
	out.Printf("Messages:  %d\n", info.MessageCount)
	out.Printf("Responses: %d\n", info.ResponseCount)
	out.Printf("Findings:  %d\n", info.TableDataCount)
	out.Printf("Size:      %s\n", info.HumanSize())
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
