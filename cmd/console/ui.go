package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jwebster45206/wuxia-session/pkg/chat"
	"github.com/jwebster45206/wuxia-session/pkg/session"
	"github.com/jwebster45206/wuxia-session/pkg/state"
	"github.com/jwebster45206/wuxia-session/pkg/textfilter"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

const (
	PlayerLabel     = "你"
	PlaceHolderText = "你想做什麼？"
	DialogueHolder  = "你想說什麼？"
)

type metaMode int

const (
	metaState metaMode = iota
	metaInventory
	metaHelp
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	session        *session.Session
	requestTimeout time.Duration

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	started      bool
	width        int
	height       int
	loading      bool

	meta      metaMode
	status    string
	statusErr bool
	tip       string

	// Quit confirmation state
	showQuitModal bool
	authExpired   bool

	// Progress bar state
	progressTick int
}

type sessionStartedMsg struct {
	err error
}

type requestDoneMsg struct {
	op  string
	err error
}

type tipMsg string

type authExpiredMsg struct{}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	npcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(sess *session.Session, requestTimeout time.Duration) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		session:        sess,
		requestTimeout: requestTimeout,
		textarea:       ta,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		loading:        true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.start(), progressTick())
}

func (m ConsoleUI) start() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.requestTimeout)
		defer cancel()
		return sessionStartedMsg{err: m.session.Start(ctx)}
	}
}

// request runs fn off the UI loop and reports back with requestDoneMsg.
func (m *ConsoleUI) request(op string, fn func(context.Context) error) (tea.Model, tea.Cmd) {
	if m.loading {
		m.setError(session.ErrRequestInFlight)
		return *m, nil
	}
	m.loading = true
	m.progressTick = 0
	m.setStatus("")
	m.writeChatContent()

	timeout := m.requestTimeout
	run := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return requestDoneMsg{op: op, err: fn(ctx)}
	}
	return *m, tea.Batch(run, progressTick())
}

func (m *ConsoleUI) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *ConsoleUI) setError(err error) {
	m.status, m.statusErr = err.Error(), true
}

func (m *ConsoleUI) toggleMeta(mode metaMode) {
	if m.meta == mode {
		m.meta = metaState
	} else {
		m.meta = mode
	}
	m.refreshMeta()
}

func (m *ConsoleUI) refreshMeta() {
	switch m.meta {
	case metaHelp:
		m.metaViewport.SetContent(titleStyle.Render("說明") + "\n\n" + helpText)
	case metaInventory:
		m.metaViewport.SetContent(writeInventory(m.session.Store().Snapshot()))
	default:
		m.metaViewport.SetContent(writeMetadata(m.session))
	}

	if npc, ok := m.session.Store().InDialogue(); ok {
		m.textarea.Placeholder = DialogueHolder + "（" + npc + "）"
	} else {
		m.textarea.Placeholder = PlaceHolderText
	}
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 8
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.authExpired {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		m.refreshMeta()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		}

	case sessionStartedMsg:
		m.loading = false
		m.tip = ""
		if msg.err != nil {
			m.setError(fmt.Errorf("無法開始遊戲：%w", msg.err))
		} else {
			m.started = true
		}
		m.writeChatContent()
		m.refreshMeta()

	case requestDoneMsg:
		m.loading = false
		m.tip = ""
		if msg.err != nil && session.IsLocal(msg.err) {
			m.setError(msg.err)
		}
		m.writeChatContent()
		m.refreshMeta()

	case tipMsg:
		m.tip = string(msg)
		m.writeChatContent()

	case authExpiredMsg:
		m.authExpired = true
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// submit routes the input line: slash commands, dialogue lines, or a free
// action.
func (m ConsoleUI) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	if _, ok := parseSlash(input); ok {
		return m.handleCommand(input)
	}
	if m.loading {
		return m, nil
	}
	if !m.started {
		// a failed start is retried by the next plain input
		m.loading = true
		m.setStatus("")
		return m, tea.Batch(m.start(), progressTick())
	}

	m.textarea.Reset()
	if _, ok := m.session.Store().InDialogue(); ok {
		return m.request("chat", func(ctx context.Context) error {
			return m.session.Chat(ctx, input)
		})
	}
	return m.request("action", func(ctx context.Context) error {
		return m.session.SubmitAction(ctx, input)
	})
}

// writeChatContent renders the narrative log for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 10 {
		chatWidth = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("武俠江湖") + "\n\n")
	content.WriteString("輸入你的行動，或輸入 /help 查看指令。\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	var names []string
	if snap := m.session.Store().Snapshot(); snap != nil {
		for _, npc := range snap.NPCs {
			names = append(names, npc.Name)
		}
	}

	for _, msg := range m.session.Log().Messages() {
		content.WriteString(formatMessage(msg, names, chatWidth) + "\n\n")
	}

	if m.loading {
		if m.tip != "" {
			content.WriteString(loadingStyle.Render(m.tip) + "\n")
		}
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// formatMessage styles one log entry and highlights NPC names in narration.
func formatMessage(msg chat.Message, npcs []string, width int) string {
	switch msg.Role {
	case chat.RolePlayer:
		return userStyle.Render(PlayerLabel+"：") + wrapText(msg.Content, width-4)
	case chat.RoleSystem:
		return errorStyle.Render(wrapText(chat.FormatWithSpeaker(msg, PlayerLabel), width))
	}

	var b strings.Builder
	for _, seg := range textfilter.Annotate(msg.Content, npcs) {
		if seg.NPC != "" {
			b.WriteString(npcStyle.Render(seg.Text))
		} else {
			b.WriteString(narratorStyle.Render(seg.Text))
		}
	}
	return wrapText(b.String(), width)
}

// wrapText breaks on spaces where it can and hard-wraps runs of CJK text.
func wrapText(s string, width int) string {
	return wrap.String(wordwrap.String(s, width), width)
}

func writeMetadata(sess *session.Session) string {
	var content strings.Builder
	store := sess.Store()
	snap := store.Snapshot()
	if snap == nil {
		content.WriteString(titleStyle.Render("角色狀態") + "\n\n")
		content.WriteString(loadingStyle.Render("載入中…") + "\n")
		return content.String()
	}

	if view, ok := sess.Combat(); ok {
		content.WriteString(writeCombat(view))
		content.WriteString("\n")
	}

	title := "第 " + humanize.Comma(int64(snap.Round)) + " 回"
	if snap.EventTitle != "" {
		title += "　" + snap.EventTitle
	}
	content.WriteString(titleStyle.Render(title) + "\n\n")

	if len(snap.Location) > 0 {
		content.WriteString(labelStyle.Render("地點") + "\n")
		content.WriteString(strings.Join(snap.Location, " / ") + "\n")
		if loc := store.Location(); loc != nil && len(loc.Neighbors) > 0 {
			content.WriteString(promptStyle.Render("可往："+strings.Join(loc.Neighbors, "、")) + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString(labelStyle.Render("時辰") + "\n")
	if snap.Era != "" {
		content.WriteString(fmt.Sprintf("%s%d年%d月%d日 ", snap.Era, snap.Year, snap.Month, snap.Day))
	}
	content.WriteString(snap.TimeOfDay)
	if snap.Weather != "" {
		content.WriteString("　" + snap.Weather)
	}
	content.WriteString("\n\n")

	content.WriteString(labelStyle.Render("修為") + "\n")
	content.WriteString(fmt.Sprintf("內功 %s\n", humanize.Comma(int64(snap.Internal))))
	content.WriteString(fmt.Sprintf("外功 %s\n", humanize.Comma(int64(snap.External))))
	content.WriteString(fmt.Sprintf("輕功 %s\n", humanize.Comma(int64(snap.Lightness))))
	content.WriteString(fmt.Sprintf("道德 %d\n", snap.Morality))
	content.WriteString(fmt.Sprintf("體力 %d/%d\n", snap.Stamina, state.MaxStamina))
	if snap.PlayerStatus != "" {
		content.WriteString(snap.PlayerStatus + "\n")
	}
	if snap.IsDead {
		content.WriteString(errorStyle.Render("已死亡") + "\n")
	}
	content.WriteString("\n")

	if len(snap.NPCs) > 0 {
		content.WriteString(labelStyle.Render("人物") + "\n")
		talking, _ := store.InDialogue()
		for _, npc := range snap.NPCs {
			line := "• " + npc.Name
			if npc.Friendliness != "" {
				line += "（" + npc.Friendliness + "）"
			}
			if npc.Deceased {
				line += " 已故"
			}
			if npc.Name == talking {
				line = npcStyle.Render(line + " ◀")
			}
			content.WriteString(line + "\n")
		}
		content.WriteString("\n")
	}

	for _, field := range []struct{ label, value string }{
		{"任務", snap.Quest},
		{"線索", snap.Clue},
		{"心念", snap.Thought},
		{"建議", snap.Suggestion},
	} {
		if field.value == "" {
			continue
		}
		content.WriteString(labelStyle.Render(field.label) + "\n" + field.value + "\n\n")
	}

	if store.HasNewBounties() {
		content.WriteString(loadingStyle.Render("有新的懸賞！") + "\n\n")
	}

	content.WriteString(promptStyle.Render("模型："+sess.Model()) + "\n")
	content.WriteString(promptStyle.Render("/help 說明　/inv 行囊") + "\n")
	return content.String()
}

func writeCombat(view session.CombatView) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render(fmt.Sprintf("戰鬥　第 %d 招", view.Turn)) + "\n\n")

	moved := make(map[string]int, len(view.Changes))
	for _, c := range view.Changes {
		moved[c.ID] = c.Delta
	}
	participant := func(p session.Participant) string {
		line := fmt.Sprintf("%s  氣血 %d/%d", p.Name, p.HP, p.MaxHP)
		if d := moved[p.ID]; d != 0 {
			line += fmt.Sprintf("（%+d）", d)
		}
		if p.MaxMP > 0 {
			line += fmt.Sprintf("  內力 %d/%d", p.MP, p.MaxMP)
		}
		if !p.Alive {
			return promptStyle.Render(line + "  倒下")
		}
		return line
	}
	content.WriteString(participant(view.Player) + "\n")
	for _, a := range view.Allies {
		content.WriteString("友 " + participant(a) + "\n")
	}
	for _, e := range view.Enemies {
		content.WriteString("敵 " + participant(e) + "\n")
	}
	content.WriteString("\n")

	strategy := strategyLabels[view.Strategy]
	if strategy == "" {
		strategy = view.Strategy
	}
	if strategy == "" {
		strategy = "未選"
	}
	content.WriteString(labelStyle.Render("策略") + " " + strategy + "\n")

	if len(view.Targets) > 0 {
		content.WriteString(labelStyle.Render("目標") + "\n")
		for i, id := range view.Targets {
			mark := "  "
			if id == view.Target {
				mark = "▶ "
			}
			content.WriteString(fmt.Sprintf("%s%d. %s\n", mark, i+1, participantName(view, id)))
		}
	}

	if len(view.Techniques) > 0 {
		content.WriteString(labelStyle.Render("招式") + "\n")
		for i, t := range view.Techniques {
			mark := "  "
			if t.Selected {
				mark = "▶ "
			}
			line := fmt.Sprintf("%s%d. %s（%d/級）", mark, i+1, t.Name, t.BaseCost)
			if !t.Usable {
				line = promptStyle.Render(line + " 兵器不合")
			}
			content.WriteString(line + "\n")
		}
	}

	if view.Technique != "" {
		cost := fmt.Sprintf("%s 第 %d 重，耗內力 %d", view.Technique, view.Intensity, view.Cost)
		if !view.Affordable {
			cost = errorStyle.Render(cost)
		}
		content.WriteString(cost + "\n")
	}

	if view.Blocker != nil {
		content.WriteString(promptStyle.Render("尚不能出招："+view.Blocker.Error()) + "\n")
	} else {
		content.WriteString(loadingStyle.Render("/go 出招") + "\n")
	}
	return content.String()
}

func participantName(view session.CombatView, id string) string {
	if view.Player.ID == id {
		return view.Player.Name
	}
	for _, p := range slices.Concat(view.Allies, view.Enemies) {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

func writeInventory(snap *state.RoundSnapshot) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("行囊") + "\n\n")
	if snap == nil || len(snap.Inventory) == 0 {
		content.WriteString("空空如也\n")
		return content.String()
	}

	for i, item := range snap.Inventory {
		line := fmt.Sprintf("%d. %s", i+1, item.Name)
		if item.Quantity > 1 {
			line += " ×" + humanize.Comma(int64(item.Quantity))
		}
		if item.Equipped {
			line = npcStyle.Render(line + " [裝備]")
		}
		content.WriteString(line + "\n")
		if item.Value != nil {
			content.WriteString(promptStyle.Render("   值 "+humanize.Comma(int64(*item.Value))+" 兩") + "\n")
		}
	}

	content.WriteString("\n" + labelStyle.Render("負重") + " " + humanize.Comma(int64(state.BulkScore(snap.Inventory))) + "\n")
	for _, slot := range state.EquipConflicts(snap.Inventory) {
		content.WriteString(errorStyle.Render("裝備衝突："+slot) + "\n")
	}
	content.WriteString("\n" + promptStyle.Render("/equip /unequip /drop <編號>") + "\n")
	return content.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderModal(title, body, hint string) string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(title))
	content.WriteString("\n\n")
	content.WriteString(body)
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render(hint))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.authExpired {
		return m.renderModal("登入已過期", "請重新登入後再回到江湖。", "按任意鍵離開")
	}

	if m.showQuitModal {
		return m.renderModal("離開江湖？", "確定要結束這段旅程嗎？", "按 Y 離開，N 繼續，Ctrl+C 強制離開")
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	status := ""
	if m.status != "" {
		if m.statusErr {
			status = errorStyle.Render(m.status)
		} else {
			status = promptStyle.Render(m.status)
		}
	}

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			status,
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
