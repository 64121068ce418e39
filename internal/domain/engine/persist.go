package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/GriffinCanCode/gadgeto/internal/domain/bundle"
	"github.com/GriffinCanCode/gadgeto/internal/infrastructure/store"
	"go.uber.org/zap"
)

// MaxImportSize bounds an import artifact
const MaxImportSize = 32 << 20

// Artifact is an exported session file
type Artifact struct {
	Filename string
	Content  []byte
}

// save writes the current state as the session bundle. Unless forced it
// skips when nothing changed since the last save or restore, and while a
// declined bundle is kept and the session is still blank. Runs on the loop.
func (e *Engine) save(ctx context.Context, force bool) error {
	if !force && (!e.st.dirty || (e.st.keepStored && e.st.blank())) {
		return nil
	}

	b := bundle.New(e.now(), e.st.handle, e.st.data())
	raw, err := bundle.Encode(b)
	if err == nil {
		err = e.store.Set(ctx, SessionKey, raw)
	}
	e.metrics.RecordSave(err)

	if err != nil {
		e.log.Warn("Session save failed", zap.Error(err))
		e.emit(EventSaveFailed, map[string]any{"error": err.Error()})
		return err
	}

	e.st.dirty = false
	e.st.keepStored = false
	e.st.lastSaved = e.now()
	e.emit(EventSaved, map[string]any{"messages": len(b.Data.Messages), "size": len(raw)})
	return nil
}

// SaveNow writes the session immediately
func (e *Engine) SaveNow(ctx context.Context) error {
	var saveErr error
	if err := e.do(ctx, func() { saveErr = e.save(ctx, true) }); err != nil {
		return err
	}
	return saveErr
}

// Info summarizes the saved session
func (e *Engine) Info(ctx context.Context) (bundle.Info, error) {
	raw, err := e.readBundle(ctx)
	if err != nil {
		return bundle.Info{}, err
	}
	return bundle.Summarize(raw)
}

// Export renders the last saved bundle as a downloadable artifact
func (e *Engine) Export(ctx context.Context) (Artifact, error) {
	raw, err := e.readBundle(ctx)
	if err != nil {
		return Artifact{}, err
	}

	b, err := bundle.Decode(raw)
	if err != nil {
		return Artifact{}, fmt.Errorf("saved session: %w", err)
	}
	content, err := bundle.EncodePretty(b)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Filename: bundle.Filename(b), Content: content}, nil
}

// Import validates an artifact and makes it the current, persisted session.
// Rejected input leaves state untouched and wraps ErrImportValidation.
func (e *Engine) Import(ctx context.Context, r io.Reader) error {
	b, encoded, err := ReadArtifact(r)
	if err != nil {
		return err
	}

	var applyErr error
	if err := e.do(ctx, func() { applyErr = e.apply(b, encoded) }); err != nil {
		return err
	}
	if applyErr != nil {
		return applyErr
	}

	e.log.Info("Session imported", zap.Int("messages", len(b.Data.Messages)))
	return nil
}

// ReadArtifact validates an export artifact and returns the bundle with its
// stored encoding. Failures wrap ErrImportValidation.
func ReadArtifact(r io.Reader) (bundle.Bundle, []byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return bundle.Bundle{}, nil, fmt.Errorf("%w: read: %w", ErrImportValidation, err)
	}
	if len(raw) > MaxImportSize {
		return bundle.Bundle{}, nil, fmt.Errorf("%w: file larger than %d bytes", ErrImportValidation, MaxImportSize)
	}

	b, err := bundle.Decode(raw)
	if err != nil {
		return bundle.Bundle{}, nil, fmt.Errorf("%w: %w", ErrImportValidation, err)
	}
	encoded, err := bundle.Encode(b)
	if err != nil {
		return bundle.Bundle{}, nil, fmt.Errorf("%w: %w", ErrImportValidation, err)
	}
	return b, encoded, nil
}

// Reload re-applies the saved bundle, discarding unsaved changes
func (e *Engine) Reload(ctx context.Context) error {
	raw, err := e.readBundle(ctx)
	if err != nil {
		return err
	}
	b, err := bundle.Decode(raw)
	if err != nil {
		return fmt.Errorf("saved session: %w", err)
	}

	var applyErr error
	if err := e.do(ctx, func() { applyErr = e.apply(b, raw) }); err != nil {
		return err
	}
	return applyErr
}

// apply persists raw as the authoritative bundle, then replaces the state
// with b. Nothing changes if the write fails. Runs on the loop.
func (e *Engine) apply(b bundle.Bundle, raw []byte) error {
	if err := e.store.Set(e.runCtx, SessionKey, raw); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	e.epoch.Add(1)
	e.st.load(b.Data)
	e.st.retire()
	e.st.dirty = false
	e.st.keepStored = false
	e.st.lastSaved = e.now()

	if id := b.BackendSessionID; id != nil && *id != "" {
		e.adoptHandle(*id)
		e.st.note("Restored backend session: " + *id)
	}

	e.metrics.SetConversationSize(len(e.st.entries))
	e.emit(EventImported, map[string]any{"messages": len(b.Data.Messages)})
	return nil
}

func (e *Engine) readBundle(ctx context.Context) ([]byte, error) {
	raw, err := e.store.Get(ctx, SessionKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoBundle
	}
	if err != nil {
		return nil, fmt.Errorf("read saved session: %w", err)
	}
	return raw, nil
}
