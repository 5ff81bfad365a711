// Package orchestrator wires user intents to the transport, the state
// stores and the reveal animator, and enforces the invariants that keep
// them mutually consistent while calls overlap.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/RichardoC/Doc-i/internal/models"
	"github.com/RichardoC/Doc-i/internal/reveal"
	"github.com/RichardoC/Doc-i/internal/state"
	"github.com/RichardoC/Doc-i/internal/transport"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBusy rejects an intent that is disallowed while an answer reveal
// or a previous send is still in flight.
var ErrBusy = errors.New("an answer is still being delivered")

const (
	newConversationText = "Started a new conversation."
	genericChatError    = "The assistant could not be reached."
	networkErrorText    = "Network error. Check the server status."
	genericUploadError  = "Upload failed."
)

// Renderer is the UI collaborator. The orchestrator tells it what
// changed; how that becomes pixels is not this package's concern.
type Renderer interface {
	// RenderSessions redraws the whole sidebar list.
	RenderSessions(sessions []models.Session, activeID string)
	// RenderActive re-highlights the active entry without redrawing
	// the list.
	RenderActive(activeID string)
	// RenderMessage appends one message incrementally.
	RenderMessage(msg models.Message)
	// RenderTranscript redraws the transcript wholesale.
	RenderTranscript(messages []models.Message)
	RenderFiles(names []string)
	ShowThinking()
	HideThinking()
	// RenderReveal shows the growing prefix of an answer being
	// revealed; done marks the final, complete text.
	RenderReveal(markdown string, done bool)
	ScrollToBottom()
	// SetUploadState toggles the busy indicator on the upload
	// affordances and updates their status line.
	SetUploadState(busy bool, status string)
	Alert(text string)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Orchestrator coordinates the session directory, transcript,
// attachment set and reveal animator. Continuations capture a
// generation counter when issued and discard their results if the
// active session changed underneath them, so a slow response can never
// corrupt a newer session's view.
type Orchestrator struct {
	api        *transport.Client
	directory  *state.SessionDirectory
	transcript *state.Transcript
	files      *state.FileSet
	animator   *reveal.Animator
	renderer   Renderer
	confirmer  Confirmer
	logger     *zap.Logger

	generation atomic.Uint64
	navSeq     atomic.Uint64
	sending    atomic.Bool
	uploading  atomic.Bool
}

func New(api *transport.Client, animator *reveal.Animator, renderer Renderer, confirmer Confirmer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		api:        api,
		directory:  state.NewSessionDirectory(),
		transcript: state.NewTranscript(),
		files:      state.NewFileSet(),
		animator:   animator,
		renderer:   renderer,
		confirmer:  confirmer,
		logger:     logger,
	}
}

// Init fetches the session directory and activates the first session
// the backend returns, or creates a fresh one when none exist. Failure
// is terminal for this load; there are no retries.
func (o *Orchestrator) Init(ctx context.Context) error {
	sessions, err := o.api.ListSessions(ctx)
	if err != nil {
		o.logger.Error("initialization failed", zap.Error(err))
		return fmt.Errorf("initialization failed: %w", err)
	}
	if len(sessions) == 0 {
		return o.NewChat(ctx)
	}
	o.directory.Replace(sessions)
	o.renderer.RenderSessions(sessions, "")
	if err := o.loadSession(ctx, sessions[0].ID); err != nil {
		o.logger.Error("initialization failed", zap.Error(err))
		return fmt.Errorf("initialization failed: %w", err)
	}
	return nil
}

// NewChat creates a session on the backend and makes it active with an
// empty transcript and file set. Any in-flight reveal belongs to the
// previous session and is abandoned first.
func (o *Orchestrator) NewChat(ctx context.Context) error {
	o.animator.Cancel()
	// Starting a chat supersedes any switch still in flight.
	o.navSeq.Add(1)

	id, err := o.api.CreateSession(ctx)
	if err != nil {
		o.logger.Error("failed to create session", zap.Error(err))
		return err
	}
	o.activate(id)
	o.transcript.Clear()
	o.files.Replace(nil)
	o.transcript.Append(models.RoleSystem, newConversationText)

	o.renderer.RenderTranscript(o.transcript.Messages())
	o.renderer.RenderFiles(nil)
	o.refreshSessions(ctx)
	return nil
}

// SwitchChat makes another session active, replacing the transcript
// and file set wholesale with the backend's stored state. It is
// rejected while a reveal is in flight. When switches overlap, the
// latest-issued one wins: each takes a navigation ticket at issue
// time and only the holder of the newest ticket may commit, so an
// earlier-issued load resolving late cannot override the user's most
// recent choice.
func (o *Orchestrator) SwitchChat(ctx context.Context, id string) error {
	if o.animator.Revealing() {
		return ErrBusy
	}
	op := uuid.NewString()
	ticket := o.navSeq.Add(1)

	data, err := o.api.LoadSession(ctx, id)
	if err != nil {
		o.logger.Error("failed to load session",
			zap.String("op", op), zap.String("session", id), zap.Error(err))
		return err
	}
	if o.navSeq.Load() != ticket {
		o.logger.Warn("discarding superseded session load",
			zap.String("op", op), zap.String("session", id))
		return nil
	}
	o.activate(id)
	o.transcript.ReplaceAll(data.Messages)
	o.files.Replace(data.Files)

	o.renderer.RenderTranscript(o.transcript.Messages())
	o.renderer.RenderFiles(o.files.Names())
	o.renderer.ScrollToBottom()
	o.renderer.RenderActive(id)
	return nil
}

// ClearChat discards the current conversation view by starting a
// fresh session, after confirmation.
func (o *Orchestrator) ClearChat(ctx context.Context) error {
	if !o.confirmer.Confirm("Are you sure you want to clear the current chat history?") {
		return nil
	}
	return o.NewChat(ctx)
}

// DeleteChat removes a session after confirmation. Deleting the active
// session chains into NewChat so the active pointer never dangles.
func (o *Orchestrator) DeleteChat(ctx context.Context, id string) error {
	if !o.confirmer.Confirm("Delete this chat history?") {
		return nil
	}
	if err := o.api.DeleteSession(ctx, id); err != nil {
		o.logger.Error("failed to delete session", zap.String("session", id), zap.Error(err))
		return err
	}
	if o.directory.Active() == id {
		return o.NewChat(ctx)
	}
	return o.refreshSessions(ctx)
}

// Send submits a query for the active session, appending the user
// message optimistically and revealing the answer when it arrives. A
// failed exchange leaves a single permanent ai-role error message in
// the transcript instead.
func (o *Orchestrator) Send(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if o.animator.Revealing() {
		return ErrBusy
	}
	if !o.sending.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.sending.Store(false)

	op := uuid.NewString()
	sessionID := o.directory.Active()
	issued := o.generation.Load()
	o.logger.Debug("sending query", zap.String("op", op), zap.String("session", sessionID))

	o.transcript.Append(models.RoleUser, query)
	o.renderer.RenderMessage(models.Message{Role: models.RoleUser, Content: query})
	o.renderer.ShowThinking()

	answer, err := o.api.Chat(ctx, sessionID, query)
	o.renderer.HideThinking()
	if err != nil {
		o.logger.Error("chat request failed",
			zap.String("op", op), zap.String("session", sessionID), zap.Error(err))
		if o.generation.Load() == issued {
			msg := models.Message{Role: models.RoleAI, Content: chatFailureText(err)}
			o.transcript.Append(msg.Role, msg.Content)
			o.renderer.RenderMessage(msg)
		}
		return err
	}
	if o.generation.Load() != issued {
		o.logger.Warn("discarding answer for no-longer-active session",
			zap.String("op", op), zap.String("session", sessionID))
		return nil
	}

	done := o.animator.Start(answer, func(revealed string, last bool) {
		if o.generation.Load() != issued {
			return
		}
		if last {
			o.transcript.Append(models.RoleAI, revealed)
		}
		o.renderer.RenderReveal(revealed, last)
	})
	<-done

	// Titles are derived server-side from conversation content, so the
	// sidebar is refreshed after every reply.
	o.refreshSessions(ctx)
	return nil
}

// UploadFiles attaches files to the active session. The resulting file
// list comes wholesale from the backend, which may dedupe or rename.
// The upload affordance stays disabled for the duration of the call:
// a second upload while one is in flight is rejected.
func (o *Orchestrator) UploadFiles(ctx context.Context, payloads []transport.FilePayload) error {
	if len(payloads) == 0 {
		return nil
	}
	if !o.uploading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.uploading.Store(false)

	op := uuid.NewString()
	sessionID := o.directory.Active()
	issued := o.generation.Load()

	o.renderer.SetUploadState(true, "Indexing...")

	files, err := o.api.Upload(ctx, sessionID, payloads)
	if err != nil {
		o.logger.Error("upload failed",
			zap.String("op", op), zap.String("session", sessionID), zap.Error(err))
		o.renderer.SetUploadState(false, "Error: "+failureText(err, genericUploadError))
		return err
	}
	if o.generation.Load() != issued {
		o.logger.Warn("discarding upload result for no-longer-active session",
			zap.String("op", op), zap.String("session", sessionID))
		o.renderer.SetUploadState(false, "")
		return nil
	}

	o.files.Replace(files)
	msg := models.Message{
		Role:    models.RoleSystem,
		Content: fmt.Sprintf("Successfully processed %d documents.", len(files)),
	}
	o.transcript.Append(msg.Role, msg.Content)
	o.renderer.RenderFiles(o.files.Names())
	o.renderer.RenderMessage(msg)
	o.renderer.SetUploadState(false, "Indexed Successfully")
	return nil
}

// RemoveFile detaches one file from the active session after
// confirmation, then re-fetches the authoritative list rather than
// removing the entry locally.
func (o *Orchestrator) RemoveFile(ctx context.Context, filename string) error {
	if !o.confirmer.Confirm(fmt.Sprintf("Are you sure you want to delete %q?", filename)) {
		return nil
	}
	op := uuid.NewString()
	sessionID := o.directory.Active()
	issued := o.generation.Load()

	if err := o.api.DeleteFile(ctx, sessionID, filename); err != nil {
		o.logger.Error("file delete failed",
			zap.String("op", op), zap.String("file", filename), zap.Error(err))
		o.renderer.Alert("Error deleting file: " + failureText(err, "network error"))
		return err
	}

	files, err := o.api.ListFiles(ctx, sessionID)
	if err != nil {
		o.logger.Error("failed to refresh file list",
			zap.String("op", op), zap.String("session", sessionID), zap.Error(err))
		return err
	}
	if o.generation.Load() != issued {
		o.logger.Warn("discarding file list for no-longer-active session",
			zap.String("op", op), zap.String("session", sessionID))
		return nil
	}

	o.files.Replace(files)
	msg := models.Message{
		Role:    models.RoleSystem,
		Content: fmt.Sprintf("File %q removed from this chat.", filename),
	}
	o.transcript.Append(msg.Role, msg.Content)
	o.renderer.RenderFiles(o.files.Names())
	o.renderer.RenderMessage(msg)
	return nil
}

// Revealing reports whether an answer reveal is in flight.
func (o *Orchestrator) Revealing() bool {
	return o.animator.Revealing()
}

// Active returns the current active session id.
func (o *Orchestrator) Active() string {
	return o.directory.Active()
}

// Close abandons any in-flight reveal.
func (o *Orchestrator) Close() {
	o.animator.Cancel()
}

// loadSession is the init-time variant of SwitchChat; there is no
// reveal to guard against yet.
func (o *Orchestrator) loadSession(ctx context.Context, id string) error {
	data, err := o.api.LoadSession(ctx, id)
	if err != nil {
		return err
	}
	o.activate(id)
	o.transcript.ReplaceAll(data.Messages)
	o.files.Replace(data.Files)
	o.renderer.RenderTranscript(o.transcript.Messages())
	o.renderer.RenderFiles(o.files.Names())
	o.renderer.ScrollToBottom()
	o.renderer.RenderActive(id)
	return nil
}

// activate moves the active pointer and bumps the generation counter
// that outstanding continuations compare against.
func (o *Orchestrator) activate(id string) {
	o.directory.SetActive(id)
	o.generation.Add(1)
}

// refreshSessions re-fetches the directory. A changed list gets a full
// redraw; an unchanged one only a highlight pass, so in-place listener
// state survives. On failure the directory is left as it was.
func (o *Orchestrator) refreshSessions(ctx context.Context) error {
	sessions, err := o.api.ListSessions(ctx)
	if err != nil {
		o.logger.Warn("failed to refresh session list", zap.Error(err))
		return err
	}
	if o.directory.Replace(sessions) {
		o.renderer.RenderSessions(sessions, o.directory.Active())
	} else {
		o.renderer.RenderActive(o.directory.Active())
	}
	return nil
}

func chatFailureText(err error) string {
	var apiErr *transport.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return "Error: " + apiErr.Message
		}
		return "Error: " + genericChatError
	}
	return networkErrorText
}

func failureText(err error, fallback string) string {
	var apiErr *transport.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
