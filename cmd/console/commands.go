package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/wuxia-session/pkg/chat"
	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/session"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

var (
	errUsage           = errors.New("用法錯誤")
	errUnknownCommand  = errors.New("未知的指令")
	errUnknownStrategy = errors.New("未知的策略")
	errUnknownTarget   = errors.New("找不到這個目標")
	errUnknownItem     = errors.New("找不到這件物品")
	errNothingToCopy   = errors.New("沒有可複製的內容")
)

// slashCommand is a parsed "/name arg..." line.
type slashCommand struct {
	Name string
	Args []string
}

func (c slashCommand) arg() string {
	return strings.Join(c.Args, " ")
}

// parseSlash splits a slash command. ok is false for plain input.
func parseSlash(input string) (slashCommand, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return slashCommand{}, false
	}
	fields := strings.Fields(input[1:])
	if len(fields) == 0 {
		return slashCommand{}, true
	}
	return slashCommand{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

var strategyAliases = map[string]string{
	"attack":  combat.StrategyAttack,
	"攻擊":      combat.StrategyAttack,
	"heal":    combat.StrategyHeal,
	"治療":      combat.StrategyHeal,
	"support": combat.StrategySupport,
	"輔助":      combat.StrategySupport,
	"defend":  combat.StrategyDefend,
	"防禦":      combat.StrategyDefend,
	"evade":   combat.StrategyEvade,
	"閃避":      combat.StrategyEvade,
}

var strategyLabels = map[string]string{
	combat.StrategyAttack:  "攻擊",
	combat.StrategyHeal:    "治療",
	combat.StrategySupport: "輔助",
	combat.StrategyDefend:  "防禦",
	combat.StrategyEvade:   "閃避",
}

// composerCommand maps a combat slash command onto a composer command.
// Targets and techniques may be given by 1-based index, id or name.
func composerCommand(sc slashCommand, view session.CombatView) (combat.Command, error) {
	switch sc.Name {
	case "strategy", "s":
		if len(sc.Args) != 1 {
			return nil, fmt.Errorf("%w：/strategy <attack|heal|support|defend|evade>", errUsage)
		}
		tag, ok := strategyAliases[strings.ToLower(sc.Args[0])]
		if !ok {
			return nil, fmt.Errorf("%w：%s", errUnknownStrategy, sc.Args[0])
		}
		return combat.SelectStrategy{Tag: tag}, nil

	case "target", "t":
		if len(sc.Args) == 0 {
			return nil, fmt.Errorf("%w：/target <編號|名字>", errUsage)
		}
		id, err := resolveTarget(view, sc.arg())
		if err != nil {
			return nil, err
		}
		return combat.SelectTarget{ID: id}, nil

	case "tech":
		if len(sc.Args) == 0 {
			return nil, fmt.Errorf("%w：/tech <編號|招式>", errUsage)
		}
		name := sc.arg()
		if n, err := strconv.Atoi(name); err == nil && n >= 1 && n <= len(view.Techniques) {
			name = view.Techniques[n-1].Name
		}
		return combat.SelectTechnique{Name: name}, nil

	case "power", "p":
		if len(sc.Args) != 1 {
			return nil, fmt.Errorf("%w：/power <等級>", errUsage)
		}
		level, err := strconv.Atoi(sc.Args[0])
		if err != nil {
			return nil, fmt.Errorf("%w：/power <等級>", errUsage)
		}
		return combat.SetIntensity{Level: level}, nil

	case "go":
		return combat.ConfirmCombatAction{}, nil

	case "reset":
		return combat.ResetComposer{}, nil
	}
	return nil, fmt.Errorf("%w：/%s", errUnknownCommand, sc.Name)
}

func resolveTarget(view session.CombatView, arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(view.Targets) {
			return view.Targets[n-1], nil
		}
		return "", fmt.Errorf("%w：%s", errUnknownTarget, arg)
	}
	for _, p := range slices.Concat([]session.Participant{view.Player}, view.Allies, view.Enemies) {
		if p.ID == arg || p.Name == arg {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("%w：%s", errUnknownTarget, arg)
}

// resolveItem finds an inventory item by 1-based index, instance id or name.
func resolveItem(items []state.InventoryItem, arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(items) {
			return items[n-1].InstanceID, nil
		}
		return "", fmt.Errorf("%w：%s", errUnknownItem, arg)
	}
	for _, item := range items {
		if item.InstanceID == arg || item.Name == arg {
			return item.InstanceID, nil
		}
	}
	return "", fmt.Errorf("%w：%s", errUnknownItem, arg)
}

// cultivationTimes parses the optional session count of /cultivate.
func cultivationTimes(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || len(args) > 1 {
		return 0, fmt.Errorf("%w：/cultivate [次數]", errUsage)
	}
	return n, nil
}

// copyText picks what /copy puts on the clipboard: the whole transcript with
// "all", otherwise the latest narration.
func copyText(log *chat.Log, arg string) (string, string, error) {
	if arg == "all" {
		if log.Len() == 0 {
			return "", "", errNothingToCopy
		}
		return log.Transcript(""), "全部紀錄", nil
	}
	msg, ok := log.Last(chat.RoleNarrator)
	if !ok {
		return "", "", errNothingToCopy
	}
	return msg.Content, "最新敘述", nil
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()
	sc, _ := parseSlash(input)

	switch sc.Name {
	case "help", "h":
		m.toggleMeta(metaHelp)
		return m, nil

	case "inv", "i":
		m.toggleMeta(metaInventory)
		return m, nil

	case "quit", "q":
		m.showQuitModal = true
		return m, nil

	case "copy":
		text, what, err := copyText(m.session.Log(), sc.arg())
		if err == nil {
			err = clipboard.WriteAll(text)
		}
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("已複製" + what + "到剪貼簿。")
		return m, nil

	case "model":
		m.session.SetModel(sc.arg())
		m.setStatus("模型：" + m.session.Model())
		m.refreshMeta()
		return m, nil

	case "talk":
		if len(sc.Args) == 0 {
			m.setError(fmt.Errorf("%w：/talk <人物>", errUsage))
			return m, nil
		}
		if err := m.session.EnterDialogue(sc.arg()); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("正在與" + sc.arg() + "交談，輸入 /leave 結束。")
		m.refreshMeta()
		return m, nil

	case "leave":
		m.session.LeaveDialogue()
		m.setStatus("結束交談。")
		m.refreshMeta()
		return m, nil

	case "cultivate":
		times, err := cultivationTimes(sc.Args)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		return m.request("cultivate", func(ctx context.Context) error {
			return m.session.Cultivate(ctx, times)
		})

	case "equip", "unequip", "drop":
		return m.inventoryCommand(sc)

	case "suicide":
		if sc.arg() != "confirm" {
			m.setError(fmt.Errorf("%w：輸入 /suicide confirm 以確認", errUsage))
			return m, nil
		}
		return m.request("suicide", m.session.ForceSuicide)

	case "surrender":
		return m.request("surrender", m.session.Surrender)

	case "abort":
		m.session.AbortCombat()
		m.setStatus("已離開戰鬥。")
		m.writeChatContent()
		m.refreshMeta()
		return m, nil

	case "strategy", "s", "target", "t", "tech", "power", "p", "go", "reset":
		view, ok := m.session.Combat()
		if !ok {
			m.setError(session.ErrNotInCombat)
			return m, nil
		}
		cmd, err := composerCommand(sc, view)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		if _, ok := cmd.(combat.ConfirmCombatAction); ok {
			return m.request("combat", func(ctx context.Context) error {
				return m.session.Dispatch(ctx, cmd)
			})
		}
		if err := m.session.Dispatch(context.Background(), cmd); err != nil {
			m.setError(err)
		} else {
			m.setStatus("")
		}
		m.refreshMeta()
		return m, nil
	}

	m.setError(fmt.Errorf("%w：/%s，輸入 /help 查看說明", errUnknownCommand, sc.Name))
	return m, nil
}

func (m ConsoleUI) inventoryCommand(sc slashCommand) (tea.Model, tea.Cmd) {
	if len(sc.Args) == 0 {
		m.setError(fmt.Errorf("%w：/%s <編號|物品>", errUsage, sc.Name))
		return m, nil
	}
	var items []state.InventoryItem
	if snap := m.session.Store().Snapshot(); snap != nil {
		items = snap.Inventory
	}
	id, err := resolveItem(items, sc.arg())
	if err != nil {
		m.setError(err)
		return m, nil
	}

	call := m.session.Equip
	switch sc.Name {
	case "unequip":
		call = m.session.Unequip
	case "drop":
		call = m.session.Drop
	}
	return m.request(sc.Name, func(ctx context.Context) error {
		return call(ctx, id)
	})
}

const helpText = `指令：
/help          顯示或隱藏說明
/inv           顯示或隱藏行囊
/talk <人物>   與人物交談
/leave         結束交談
/cultivate [n] 閉關修煉 n 次
/equip <物品>  裝備或卸下
/unequip <物品>
/drop <物品>
/model [名稱]  切換模型，留空回到預設
/copy [all]    複製最新敘述或全部紀錄
/suicide confirm
/quit          離開

戰鬥：
/strategy <策略>  attack heal support defend evade
/target <目標>    編號或名字
/tech <招式>      再選一次取消
/power <等級>
/go               出招
/reset            清除選擇
/surrender        投降
/abort            直接離開戰鬥

物品、目標與招式可用編號指定。
Ctrl+C / Esc：離開`
