package ui

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/aeolun/crewchat/pkg/client"
	"github.com/aeolun/crewchat/pkg/client/audio"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// cmdTimeout bounds how long a test waits on a command. Ticks and listeners that block
// longer than this are dropped.
const cmdTimeout = 100 * time.Millisecond

func testSettings() Settings {
	s := DefaultSettings()
	s.Version = "0.0.0-test"
	s.Location = time.UTC
	return s
}

// NewTestModel creates a Model on the demo backend with window dimensions and the initial loads applied
func NewTestModel(t *testing.T) (Model, *client.MockBackend, *client.MockState) {
	t.Helper()
	backend := client.NewDemoBackend()
	state := client.NewMockState()
	return NewTestModelWithMocks(t, backend, state, nil), backend, state
}

// NewTestModelWithMocks creates a Model with provided mocks. Desktop notifications are swallowed.
func NewTestModelWithMocks(t *testing.T, backend client.Backend, state client.StateInterface, recorder VoiceRecorder) Model {
	t.Helper()
	logger := log.New(io.Discard, "", 0) // Discard logs in tests
	m := NewModel(client.DemoSession, backend, state, nil, recorder, testSettings(), logger)
	m.notify = func(title, body string) error { return nil }

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m = updated.(Model)
	return settle(t, m, m.Init())
}

// execCmd runs cmd and flattens batches, dropping anything that does not finish in time
func execCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if msg == nil {
			return nil
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, execCmd(c)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(cmdTimeout):
		return nil
	}
}

// settle feeds cmd's results back into the model until no commands remain
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for rounds := 0; len(queue) > 0 && rounds < 200; rounds++ {
		next := queue[0]
		queue = queue[1:]
		for _, msg := range execCmd(next) {
			switch msg.(type) {
			case spinner.TickMsg, ClearStatusMsg, recordingTickMsg:
				continue
			}
			updated, c := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, c)
		}
	}
	return m
}

// keyMsg builds a key event from its String() form
func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+f":
		return tea.KeyMsg{Type: tea.KeyCtrlF}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends one key and returns the updated model and its command
func press(m Model, k string) (Model, tea.Cmd) {
	updated, cmd := m.Update(keyMsg(k))
	return updated.(Model), cmd
}

// pressAndSettle sends one key and runs everything it triggers
func pressAndSettle(t *testing.T, m Model, k string) Model {
	t.Helper()
	m, cmd := press(m, k)
	return settle(t, m, cmd)
}

// typeText types text one rune at a time into the focused widget
func typeText(m Model, text string) Model {
	for _, r := range text {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

// openRoom selects roomID and waits for its messages and detail
func openRoom(t *testing.T, m Model, roomID string) Model {
	t.Helper()
	cmd := m.selectRoom(roomID)
	return settle(t, m, cmd)
}

// focusPane moves focus directly
func focusPane(m Model, f Focus) Model {
	m.focus = f
	m.applyFocus()
	return m
}

// fakeRecorder is a VoiceRecorder with scripted results
type fakeRecorder struct {
	mu       sync.Mutex
	state    audio.State
	startErr error
	stopErr  error
	clip     audio.Clip
	starts   int
	cancels  int
}

func (r *fakeRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	if r.state == audio.StateRecording {
		return audio.ErrAlreadyRecording
	}
	if r.startErr != nil {
		return r.startErr
	}
	r.state = audio.StateRecording
	return nil
}

func (r *fakeRecorder) Stop() (audio.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != audio.StateRecording {
		return audio.Clip{}, audio.ErrNotRecording
	}
	r.state = audio.StateIdle
	if r.stopErr != nil {
		return audio.Clip{}, r.stopErr
	}
	return r.clip, nil
}

func (r *fakeRecorder) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == audio.StateRecording {
		r.cancels++
	}
	r.state = audio.StateIdle
	return nil
}

func (r *fakeRecorder) State() audio.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *fakeRecorder) Elapsed() time.Duration {
	return 3 * time.Second
}
