package main

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxMessageLength = 140

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

type step int

const (
	stepEnteringUsername step = iota
	stepEnteringPassword
	stepLoggingIn
	stepTimeline
	stepComposing
	stepPosting
)

type model struct {
	api          *client
	step         step
	username     string
	messages     []message
	cursor       int
	currentInput string
	message      string
	quitting     bool
}

type loginSuccessMsg struct{ username string }
type timelineMsg []message
type postedMsg struct{}
type likedMsg struct{ liked bool }
type refreshTickMsg struct{}
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(api *client) model {
	return model{
		api:  api,
		step: stepEnteringUsername,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func tickRefresh() tea.Cmd {
	return tea.Tick(30*time.Second, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func loginUser(api *client, username, password string) tea.Cmd {
	return func() tea.Msg {
		res, err := api.login(username, password)
		if err != nil {
			return errMsg{err}
		}
		return loginSuccessMsg{username: res.Username}
	}
}

func loadTimeline(api *client) tea.Cmd {
	return func() tea.Msg {
		messages, err := api.timeline()
		if err != nil {
			return errMsg{err}
		}
		return timelineMsg(messages)
	}
}

func postMessage(api *client, text string) tea.Cmd {
	return func() tea.Msg {
		if err := api.post(text); err != nil {
			return errMsg{err}
		}
		return postedMsg{}
	}
}

func toggleLike(api *client, id uint) tea.Cmd {
	return func() tea.Msg {
		liked, err := api.toggleLike(id)
		if err != nil {
			return errMsg{err}
		}
		return likedMsg{liked: liked}
	}
}

func (m model) editing() bool {
	return m.step == stepEnteringUsername || m.step == stepEnteringPassword || m.step == stepComposing
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEsc:
			if m.step == stepComposing {
				m.currentInput = ""
				m.step = stepTimeline
			}
			return m, nil

		case tea.KeyBackspace:
			if len(m.currentInput) > 0 {
				_, size := utf8.DecodeLastRuneInString(m.currentInput)
				m.currentInput = m.currentInput[:len(m.currentInput)-size]
			}
			return m, nil

		case tea.KeyEnter:
			return m.submit()
		}

		if m.editing() {
			if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
				m.currentInput += msg.String()
			}
			return m, nil
		}

		if m.step == stepTimeline {
			switch msg.String() {
			case "q":
				m.quitting = true
				return m, tea.Quit
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.messages)-1 {
					m.cursor++
				}
			case "n":
				m.step = stepComposing
				m.message = ""
			case "r":
				return m, loadTimeline(m.api)
			case "l":
				if len(m.messages) > 0 {
					return m, toggleLike(m.api, m.messages[m.cursor].ID)
				}
			}
		}

	case loginSuccessMsg:
		m.username = msg.username
		m.step = stepTimeline
		m.message = successStyle.Render("✓ Logged in as " + m.username)
		return m, tea.Batch(loadTimeline(m.api), tickRefresh())

	case timelineMsg:
		m.messages = []message(msg)
		if m.cursor >= len(m.messages) {
			m.cursor = 0
		}

	case refreshTickMsg:
		if m.step == stepTimeline {
			return m, tea.Batch(loadTimeline(m.api), tickRefresh())
		}
		return m, tickRefresh()

	case postedMsg:
		m.step = stepTimeline
		m.message = successStyle.Render("✓ Message posted")
		return m, loadTimeline(m.api)

	case likedMsg:
		if msg.liked {
			m.message = successStyle.Render("✓ Liked")
		} else {
			m.message = successStyle.Render("✓ Unliked")
		}

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		switch m.step {
		case stepLoggingIn:
			m.step = stepEnteringUsername
		case stepPosting:
			m.step = stepComposing
		}
	}

	return m, nil
}

func (m model) submit() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepEnteringUsername:
		if m.currentInput != "" {
			m.username = m.currentInput
			m.currentInput = ""
			m.step = stepEnteringPassword
		}

	case stepEnteringPassword:
		if m.currentInput != "" {
			password := m.currentInput
			m.currentInput = ""
			m.step = stepLoggingIn
			m.message = "Logging in..."
			return m, loginUser(m.api, m.username, password)
		}

	case stepComposing:
		text := strings.TrimSpace(m.currentInput)
		if text == "" || utf8.RuneCountInString(text) > maxMessageLength {
			m.message = errorStyle.Render(fmt.Sprintf("✗ Messages must be between 1 and %d characters", maxMessageLength))
			return m, nil
		}
		m.currentInput = ""
		m.step = stepPosting
		m.message = "Posting..."
		return m, postMessage(m.api, text)
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Warbler") + "\n\n")

	switch m.step {
	case stepEnteringUsername:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		s.WriteString(promptStyle.Render("Enter your username:\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringPassword:
		s.WriteString(promptStyle.Render("Enter your password:\n"))
		s.WriteString(inputStyle.Render("> " + strings.Repeat("•", utf8.RuneCountInString(m.currentInput))))
		s.WriteString("\n\nPress Enter\n")

	case stepLoggingIn, stepPosting:
		s.WriteString(m.message + "\n")

	case stepTimeline:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		if len(m.messages) == 0 {
			s.WriteString(mutedStyle.Render("Nothing here yet. Follow someone or post a message.") + "\n")
		}
		for i, msg := range m.messages {
			cursor := " "
			style := normalStyle
			if m.cursor == i {
				cursor = ">"
				style = selectedStyle
			}
			line := fmt.Sprintf("@%s: %s", msg.User.Username, msg.Text)
			s.WriteString(fmt.Sprintf("%s %s %s\n", cursor, style.Render(line), mutedStyle.Render(msg.Timestamp.Local().Format("Jan 2 15:04"))))
		}
		s.WriteString("\n↑/↓ move · n new · l like · r refresh · q quit\n")

	case stepComposing:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		s.WriteString(promptStyle.Render("What's happening?\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString(mutedStyle.Render(fmt.Sprintf("\n%d/%d", utf8.RuneCountInString(m.currentInput), maxMessageLength)))
		s.WriteString("\n\nEnter to post, Esc to cancel\n")
	}

	return s.String()
}

func main() {
	baseURL := os.Getenv("WARBLER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}

	p := tea.NewProgram(initialModel(newClient(baseURL)))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
