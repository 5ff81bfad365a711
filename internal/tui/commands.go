package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RichardoC/Doc-i/internal/transport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const helpText = `Commands:
  /new                start a new conversation
  /clear              clear the current chat (starts a new one)
  /switch <n>         switch to session n from the sidebar
  /delete [n]         delete session n (default: the active one)
  /upload <path>...   attach files to this conversation
  /rm <filename>      detach a file from this conversation
  /help               show this help
  /quit               exit`

func (m Model) handleCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/new":
		return m, m.engineCmd(func(ctx context.Context) error {
			return m.engine.NewChat(ctx)
		})

	case "/clear":
		return m, m.engineCmd(func(ctx context.Context) error {
			return m.engine.ClearChat(ctx)
		})

	case "/switch":
		if len(args) != 1 {
			m.alert = "Usage: /switch <n>"
			return m, nil
		}
		id, err := m.resolveSession(args[0])
		if err != nil {
			m.alert = err.Error()
			return m, nil
		}
		return m, m.engineCmd(func(ctx context.Context) error {
			return m.engine.SwitchChat(ctx, id)
		})

	case "/delete":
		id := m.activeID
		if len(args) == 1 {
			resolved, err := m.resolveSession(args[0])
			if err != nil {
				m.alert = err.Error()
				return m, nil
			}
			id = resolved
		}
		if id == "" {
			m.alert = "No session to delete."
			return m, nil
		}
		return m, m.engineCmd(func(ctx context.Context) error {
			return m.engine.DeleteChat(ctx, id)
		})

	case "/upload":
		if m.uploadBusy {
			m.alert = "An upload is already in progress."
			return m, nil
		}
		if len(args) == 0 {
			m.alert = "Usage: /upload <path>..."
			return m, nil
		}
		return m, m.uploadCmd(args)

	case "/rm":
		if len(args) == 0 {
			m.alert = "Usage: /rm <filename>"
			return m, nil
		}
		name := strings.Join(args, " ")
		return m, m.engineCmd(func(ctx context.Context) error {
			return m.engine.RemoveFile(ctx, name)
		})

	case "/help":
		m.alert = helpText
		return m, nil

	case "/quit", "/exit":
		m.engine.Close()
		return m, tea.Quit

	default:
		m.alert = fmt.Sprintf("Unknown command %s (try /help)", cmd)
		return m, nil
	}
}

// resolveSession accepts a 1-based sidebar index or a session id.
func (m Model) resolveSession(arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(m.sessions) {
			return "", fmt.Errorf("no session %d in the sidebar", n)
		}
		return m.sessions[n-1].ID, nil
	}
	for _, s := range m.sessions {
		if s.ID == arg {
			return s.ID, nil
		}
	}
	return "", fmt.Errorf("unknown session %q", arg)
}

// uploadCmd opens the named files and hands them to the engine. The
// handles stay open for the duration of the multipart request and are
// closed in every completion path.
func (m Model) uploadCmd(paths []string) tea.Cmd {
	engine := m.engine
	logger := m.logger
	return func() tea.Msg {
		var payloads []transport.FilePayload
		var open []*os.File
		defer func() {
			for _, f := range open {
				f.Close()
			}
		}()

		for _, path := range paths {
			f, err := os.Open(path)
			if err != nil {
				logger.Error("cannot open file for upload", zap.String("path", path), zap.Error(err))
				return alertMsg{text: fmt.Sprintf("Cannot open %s", path)}
			}
			open = append(open, f)
			payloads = append(payloads, transport.FilePayload{
				Name:   filepath.Base(path),
				Reader: f,
			})
		}
		return opDoneMsg{err: engine.UploadFiles(context.Background(), payloads)}
	}
}
