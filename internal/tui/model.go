// Package tui is the interactive terminal front end for one document session.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/service"
)

// SessionPort is the TUI-facing subset of a document session.
type SessionPort interface {
	Ask(ctx context.Context, question string) (service.Answer, error)
	Evaluate(ctx context.Context, candidate, topic string) (domain.EvaluationResult, error)
}

type mode int

const (
	modeAsk mode = iota
	modeEvalTopic
	modeEvalAnswer
)

type answerMsg struct {
	question string
	answer   service.Answer
	err      error
}

type evaluationMsg struct {
	topic  string
	result domain.EvaluationResult
	err    error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	session    SessionPort
	document   service.DocumentSummary
	input      textinput.Model
	viewport   viewport.Model
	transcript []string
	mode       mode
	topic      string
	status     string
	busy       bool
	ready      bool
}

// New creates a new TUI model for a loaded document.
func New(session SessionPort, document service.DocumentSummary) Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 0
	m := Model{
		session:  session,
		document: document,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ready. tab switches between asking and evaluating.",
	}
	m.setPrompt()
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header and overview, status, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.transcript = append(m.transcript, renderAnswer(msg.question, msg.answer))
		m.status = fmt.Sprintf("Answered %q", msg.question)
		m.refresh()
		return m, nil
	case evaluationMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.transcript = append(m.transcript, renderEvaluation(msg.topic, msg.result))
		m.status = fmt.Sprintf("Evaluated answer on %q", msg.topic)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlL:
			m.transcript = nil
			m.status = "Transcript cleared."
			m.refresh()
			return m, nil
		case tea.KeyTab:
			if m.mode == modeAsk {
				m.mode = modeEvalTopic
				m.status = "Evaluate: enter the topic to look up in the document."
			} else {
				m.mode = modeAsk
				m.topic = ""
				m.status = "Ask: type a question about the document."
			}
			m.input.Reset()
			m.setPrompt()
			return m, nil
		case tea.KeyUp, tea.KeyPgUp, tea.KeyDown, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			return m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.busy {
		return m, nil
	}
	m.input.Reset()
	switch m.mode {
	case modeEvalTopic:
		m.topic = text
		m.mode = modeEvalAnswer
		m.status = fmt.Sprintf("Topic %q. Now type the answer to evaluate.", text)
		m.setPrompt()
		return m, nil
	case modeEvalAnswer:
		topic := m.topic
		m.topic = ""
		m.mode = modeEvalTopic
		m.busy = true
		m.status = "Evaluating..."
		m.setPrompt()
		return m, m.evaluate(text, topic)
	default:
		m.busy = true
		m.status = "Searching..."
		return m, m.ask(text)
	}
}

func (m Model) ask(question string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ans, err := session.Ask(context.Background(), question)
		return answerMsg{question: question, answer: ans, err: err}
	}
}

func (m Model) evaluate(candidate, topic string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		res, err := session.Evaluate(context.Background(), candidate, topic)
		return evaluationMsg{topic: topic, result: res, err: err}
	}
}

func (m *Model) setPrompt() {
	switch m.mode {
	case modeEvalTopic:
		m.input.Prompt = "topic> "
		m.input.Placeholder = "What should the answer be about?"
	case modeEvalAnswer:
		m.input.Prompt = "answer> "
		m.input.Placeholder = "Paste or type the answer to score"
	default:
		m.input.Prompt = "ask> "
		m.input.Placeholder = "Ask a question and press Enter"
	}
}

func (m *Model) refresh() {
	if len(m.transcript) == 0 {
		m.viewport.SetContent(mutedStyle.Render("Nothing yet. Ask a question about " + m.document.Name + "."))
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render(fmt.Sprintf("docqa · %s (%d chunks)", m.document.Name, m.document.Chunks))
	overview := mutedStyle.Render(m.document.Overview)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + overview + "\n" + transcript + "\n" + input + "\n" + status
}

func renderAnswer(question string, ans service.Answer) string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("Q: " + question))
	b.WriteString("\n")
	b.WriteString(ans.Text)
	if len(ans.Results) > 0 {
		top := ans.Results[0]
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("best source: chunk %d, page %d, score %.3f",
			top.Chunk.Index, top.Chunk.PageNumber, top.Score)))
		b.WriteString("\n")
		b.WriteString(highlightBestSentence(top.Chunk.Text, question))
	}
	return b.String()
}

func renderEvaluation(topic string, r domain.EvaluationResult) string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("Evaluation: " + topic))
	b.WriteString("\n")
	b.WriteString(scoreStyle(r.SimilarityPercentage).Render(fmt.Sprintf("%d%% match", r.SimilarityPercentage)))
	b.WriteString("\n")
	b.WriteString(r.Justification)
	if len(r.MissingElements) > 0 {
		b.WriteString("\nMissing: ")
		b.WriteString(strings.Join(r.MissingElements, ", "))
	}
	for _, ex := range r.ReferenceExcerpts {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("> " + ex))
	}
	return evaluationCardStyle.Render(b.String())
}

var (
	headerStyle         = lipgloss.NewStyle().Bold(true)
	mutedStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	transcriptBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	evaluationCardStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	highlightStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe       = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe          = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

func scoreStyle(pct int) lipgloss.Style {
	switch {
	case pct >= 80:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	case pct >= 40:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	}
}

// highlightBestSentence emphasises the sentence of text sharing the most
// words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	bestIdx, bestScore := -1, 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	out := make([]string, 0, len(sentences))
	for i, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if i == bestIdx {
			s = highlightStyle.Render(s)
		}
		out = append(out, s)
	}
	return strings.Join(out, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
