package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/atotto/clipboard"

	"github.com/GriffinCanCode/gadgeto/internal/domain/engine"
)

const helpText = `Commands:
  /select N [N...]   toggle agent responses for promotion
  /promote           copy selected responses into the findings table
  /findings          show the findings table
  /copy [ID]         copy a finding (default: latest response) to the clipboard
  /transcript        show the conversation with indices
  /reasoning         show the diagnostic log
  /clear-reasoning   empty the diagnostic log
  /history           ask the backend about the current session
  /split P           set the chat pane width in percent
  /status            show mode, session and save state
  /save              save now
  /reload            discard unsaved changes and reload the saved session
  /info              describe the saved session
  /export [PATH]     write the saved session to a file
  /import PATH       replace the session with a file
  /clear             wipe the session (asks first)
  /quit              save and exit
`

func writeClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// lockedWriter serializes output from the prompt loop and engine events
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newLockedWriter(w io.Writer) *lockedWriter {
	return &lockedWriter{w: w}
}

func (l *lockedWriter) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}

type repl struct {
	eng      *engine.Engine
	in       *bufio.Scanner
	out      *lockedWriter
	copyText func(string) error

	once  sync.Once
	lines chan string
}

// readLines feeds stdin into lines so reads can be abandoned on cancel
func (r *repl) readLines() <-chan string {
	r.once.Do(func() {
		r.lines = make(chan string)
		go func() {
			defer close(r.lines)
			for r.in.Scan() {
				r.lines <- r.in.Text()
			}
		}()
	})
	return r.lines
}

func (r *repl) next(ctx context.Context) (string, bool) {
	select {
	case line, ok := <-r.readLines():
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

func (r *repl) confirm(ctx context.Context, prompt string) bool {
	r.out.Printf("%s [y/N] ", prompt)
	line, ok := r.next(ctx)
	if !ok {
		r.out.Printf("\n")
		return false
	}
	return isYes(line)
}

func (r *repl) onEvent(_ context.Context, ev engine.Event) {
	switch ev.Type {
	case engine.EventEntryAdded:
		r.out.Printf("[%v] %v\n", ev.Data["index"], ev.Data["text"])
	case engine.EventFallback:
		r.out.Printf("Backend unavailable, using the live channel (%v)\n", ev.Data["error"])
	case engine.EventSaveFailed:
		r.out.Printf("Save failed: %v\n", ev.Data["error"])
	case engine.EventCorruptBundle:
		r.out.Printf("The saved session was unreadable and has been discarded\n")
	}
}

func (r *repl) run(ctx context.Context) error {
	if err := r.status(ctx); err != nil {
		return err
	}
	r.out.Printf("Type a message, or /help for commands.\n")

	for {
		r.out.Printf("> ")
		line, ok := r.next(ctx)
		if !ok {
			r.out.Printf("\n")
			return nil
		}
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "/") {
			if err := r.eng.SendMessage(ctx, line); err != nil {
				return err
			}
			continue
		}

		quit, err := r.command(ctx, trimmed)
		if errors.Is(err, engine.ErrClosed) {
			return err
		}
		if err != nil {
			r.out.Printf("Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (r *repl) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		r.out.Printf("%s", helpText)
		return false, nil
	case "/select":
		return false, r.selectEntries(ctx, args)
	case "/promote":
		added, err := r.eng.PromoteSelection(ctx)
		if err != nil {
			return false, err
		}
		r.out.Printf("Promoted %d finding(s)\n", len(added))
		return false, nil
	case "/findings":
		return false, r.findings(ctx)
	case "/copy":
		return false, r.copy(ctx, args)
	case "/transcript":
		return false, r.transcript(ctx)
	case "/reasoning":
		return false, r.reasoning(ctx)
	case "/clear-reasoning":
		return false, r.eng.ClearReasoning(ctx)
	case "/history":
		info, err := r.eng.FetchHistory(ctx)
		if err != nil {
			return false, err
		}
		r.out.Printf("Session %s: %d messages, last access %s\n",
			info.SessionID, info.MessageCount, info.LastAccess.Format(time.RFC3339))
		return false, nil
	case "/split":
		if len(args) != 1 {
			return false, errors.New("usage: /split PERCENT")
		}
		p, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, fmt.Errorf("invalid percent %q", args[0])
		}
		return false, r.eng.SetPanelSplit(ctx, p)
	case "/status":
		return false, r.status(ctx)
	case "/save":
		if err := r.eng.SaveNow(ctx); err != nil {
			return false, err
		}
		r.out.Printf("Saved\n")
		return false, nil
	case "/reload":
		if err := r.eng.Reload(ctx); err != nil {
			return false, err
		}
		r.out.Printf("Reloaded the saved session\n")
		return false, nil
	case "/info":
		info, err := r.eng.Info(ctx)
		if err != nil {
			return false, err
		}
		printInfo(r.out, info)
		return false, nil
	case "/export":
		return false, r.export(ctx, args)
	case "/import":
		if len(args) != 1 {
			return false, errors.New("usage: /import PATH")
		}
		f, err := os.Open(args[0])
		if err != nil {
			return false, err
		}
		defer f.Close()
		if err := r.eng.Import(ctx, f); err != nil {
			return false, err
		}
		r.out.Printf("Imported %s\n", args[0])
		return false, nil
	case "/clear":
		cleared, err := r.eng.ClearSession(ctx)
		if err != nil {
			return false, err
		}
		if cleared {
			r.out.Printf("Session cleared\n")
		} else {
			r.out.Printf("Kept the session\n")
		}
		return false, nil
	}
	return false, fmt.Errorf("unknown command %s (try /help)", name)
}

func (r *repl) selectEntries(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: /select N [N...]")
	}
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid index %q", arg)
		}
		if err := r.eng.SelectEntry(ctx, n); err != nil {
			return err
		}
	}
	v, err := r.eng.View(ctx)
	if err != nil {
		return err
	}
	r.out.Printf("Selected: %v\n", v.Selection)
	return nil
}

func (r *repl) findings(ctx context.Context) error {
	v, err := r.eng.View(ctx)
	if err != nil {
		return err
	}
	if len(v.Findings) == 0 {
		r.out.Printf("No findings\n")
		return nil
	}

	r.out.mu.Lock()
	defer r.out.mu.Unlock()
	tw := tabwriter.NewWriter(r.out.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCONTENT")
	for _, f := range v.Findings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", f.ID, f.Name, f.Status, firstLine(f.Content))
	}
	return tw.Flush()
}

func (r *repl) copy(ctx context.Context, args []string) error {
	v, err := r.eng.View(ctx)
	if err != nil {
		return err
	}

	var text string
	if len(args) == 0 {
		responses := v.Responses()
		if len(responses) == 0 {
			return errors.New("nothing to copy")
		}
		text = responses[len(responses)-1]
	} else {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid finding id %q", args[0])
		}
		found := false
		for _, f := range v.Findings {
			if f.ID == id {
				text, found = f.Content, true
				break
			}
		}
		if !found {
			return fmt.Errorf("no finding %d", id)
		}
	}

	if err := r.copyText(text); err != nil {
		return fmt.Errorf("could not copy to clipboard: %w", err)
	}
	r.out.Printf("Copied to clipboard\n")
	return nil
}

func (r *repl) transcript(ctx context.Context) error {
	v, err := r.eng.View(ctx)
	if err != nil {
		return err
	}
	for i, e := range v.Entries {
		mark := " "
		if v.IsSelected(i) {
			mark = "*"
		}
		r.out.Printf("%s%3d  %s\n", mark, i, e.Transcript())
	}
	return nil
}

func (r *repl) reasoning(ctx context.Context) error {
	v, err := r.eng.View(ctx)
	if err != nil {
		return err
	}
	for _, e := range v.Reasoning {
		r.out.Printf("%s\n", e.Display())
	}
	return nil
}

func (r *repl) status(ctx context.Context) error {
	v, err := r.eng.View(ctx)
	if err != nil {
		return err
	}

	session := "none"
	if v.HasHandle() {
		session = v.Handle
	}
	saved := "never"
	if !v.LastSaved.IsZero() {
		saved = v.LastSaved.Format(time.Kitchen)
	}
	r.out.Printf("Mode: %s  Session: %s  Live: %s  Messages: %d  Findings: %d  Split: %.0f%%  Saved: %s\n",
		v.Mode, session, v.LiveState, len(v.Entries), len(v.Findings), v.PanelSplit, saved)
	if v.Pending {
		r.out.Printf("Waiting for a reply...\n")
	}
	return nil
}

func (r *repl) export(ctx context.Context, args []string) error {
	art, err := r.eng.Export(ctx)
	if err != nil {
		return err
	}
	path := art.Filename
	if len(args) > 0 {
		path = args[0]
	}
	if err := writeArtifact(path, art.Content); err != nil {
		return err
	}
	r.out.Printf("Exported to %s\n", path)
	return nil
}

func writeArtifact(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, content, 0o644)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
