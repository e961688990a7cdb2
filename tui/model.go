package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"limitbook/internal/market"
	marketservice "limitbook/internal/market/service"
	"limitbook/internal/orderbook/core"
	"limitbook/tui/panels"
	"limitbook/tui/styles"
)

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusMarket     PanelFocus = 0
	FocusOrderbook  PanelFocus = 1
	FocusOrderInput PanelFocus = 2
)

const panelCount = 3

// Model is the main TUI application model.
type Model struct {
	marketService *marketservice.MarketService

	instruments   []market.Instrument
	instrumentMap map[market.Symbol]market.Instrument

	marketPanel     *panels.MarketOverviewPanel
	orderbookPanel  *panels.OrderbookPanel
	orderInputPanel *panels.OrderInputPanel

	focusedPanel PanelFocus

	width  int
	height int

	statusMsg string
	ready     bool
}

// NewModel creates a new TUI model.
func NewModel(marketService *marketservice.MarketService) *Model {
	instruments := marketService.GetInstruments()

	instrumentMap := make(map[market.Symbol]market.Instrument)
	for _, in := range instruments {
		instrumentMap[in.Symbol] = in
	}

	marketPanel := panels.NewMarketOverviewPanel(instruments)
	orderbookPanel := panels.NewOrderbookPanel()
	orderInputPanel := panels.NewOrderInputPanel(instruments)

	if len(instruments) > 0 {
		orderbookPanel.SetInstrument(instruments[0])
	}

	return &Model{
		marketService:   marketService,
		instruments:     instruments,
		instrumentMap:   instrumentMap,
		marketPanel:     marketPanel,
		orderbookPanel:  orderbookPanel,
		orderInputPanel: orderInputPanel,
		focusedPanel:    FocusOrderInput,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.marketPanel.Init(),
		m.orderbookPanel.Init(),
		m.orderInputPanel.Init(),
		m.listenMarketEvents(),
		m.tickRefresh(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		// Cycle focus with tab
		case "tab":
			m.focusedPanel = (m.focusedPanel + 1) % panelCount

		case "shift+tab":
			m.focusedPanel--
			if m.focusedPanel < 0 {
				m.focusedPanel = panelCount - 1
			}

		// Direct panel focus with F1-F3
		case "f1":
			m.focusedPanel = FocusMarket
		case "f2":
			m.focusedPanel = FocusOrderbook
		case "f3":
			m.focusedPanel = FocusOrderInput
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case panels.MarketUpdateMsg:
		m.handleMarketUpdate(msg)
		cmds = append(cmds, m.listenMarketEvents())

	case panels.OrderActionMsg:
		cmds = append(cmds, m.executeOrderAction(msg))

	case orderResultMsg:
		m.statusMsg = msg.message

	case tickMsg:
		m.updateAllData()
		cmds = append(cmds, m.tickRefresh())
	}

	// Update focused panel
	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	var cmd tea.Cmd

	switch m.focusedPanel {
	case FocusMarket:
		m.marketPanel, cmd = m.marketPanel.Update(msg)
		// Check if selection changed
		selected := m.marketPanel.SelectedInstrument()
		if selected.Symbol != "" && selected.Symbol != m.orderbookPanel.Instrument().Symbol {
			m.orderbookPanel.SetInstrument(selected)
			m.updateOrderbookData()
		}
	case FocusOrderbook:
		m.orderbookPanel, cmd = m.orderbookPanel.Update(msg)
	case FocusOrderInput:
		m.orderInputPanel, cmd = m.orderInputPanel.Update(msg)
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	m.marketPanel.SetFocus(m.focusedPanel == FocusMarket)
	m.orderbookPanel.SetFocus(m.focusedPanel == FocusOrderbook)
	m.orderInputPanel.SetFocus(m.focusedPanel == FocusOrderInput)

	// Layout:
	// ┌──────────────────────┬──────────────────────┐
	// │   Market Overview    │      Orderbook       │
	// ├──────────────────────┴──────────────────────┤
	// │                Order Entry                  │
	// └─────────────────────────────────────────────┘

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth

	topHeight := (m.height - 3) / 2
	bottomHeight := m.height - topHeight - 3

	m.marketPanel.SetSize(leftWidth, topHeight)
	m.orderbookPanel.SetSize(rightWidth, topHeight)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.marketPanel.View(),
		m.orderbookPanel.View(),
	)

	m.orderInputPanel.SetSize(m.width, bottomHeight)
	bottomRow := m.orderInputPanel.View()

	statusBar := m.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow, statusBar)
}

func (m *Model) renderStatusBar() string {
	help := []string{
		styles.StatusBarKeyStyle.Render("F1-F3") + styles.StatusBarDescStyle.Render(" panels"),
		styles.StatusBarKeyStyle.Render("Tab/Enter") + styles.StatusBarDescStyle.Render(" navigate"),
		styles.StatusBarKeyStyle.Render("↑↓") + styles.StatusBarDescStyle.Render(" select"),
		styles.StatusBarKeyStyle.Render("ctrl+c") + styles.StatusBarDescStyle.Render(" quit"),
	}

	helpStr := lipgloss.JoinHorizontal(lipgloss.Center, help[0], " │ ", help[1], " │ ", help[2], " │ ", help[3])

	status := ""
	if m.statusMsg != "" {
		status = " │ " + m.statusMsg
	}

	return styles.StatusBarStyle.Width(m.width).Render(helpStr + status)
}

func (m *Model) handleMarketUpdate(msg panels.MarketUpdateMsg) {
	snap := m.marketService.Snapshot()
	m.marketPanel.SetSnapshot(snap)

	// If this is for the currently selected instrument, update orderbook
	if msg.Symbol == m.orderbookPanel.Instrument().Symbol {
		bids, _ := m.marketService.GetLevels(msg.Symbol, core.SideBuy)
		asks, _ := m.marketService.GetLevels(msg.Symbol, core.SideSell)
		m.orderbookPanel.SetLevels(bids, asks)

		if trade, ok := msg.Event.(core.TradeEvent); ok {
			m.orderbookPanel.AddTrade(trade)
		}
	}
}

func (m *Model) updateAllData() {
	snap := m.marketService.Snapshot()
	m.marketPanel.SetSnapshot(snap)
	m.updateOrderbookData()
}

func (m *Model) updateOrderbookData() {
	in := m.orderbookPanel.Instrument()
	if in.Symbol == "" {
		return
	}

	bids, _ := m.marketService.GetLevels(in.Symbol, core.SideBuy)
	asks, _ := m.marketService.GetLevels(in.Symbol, core.SideSell)
	m.orderbookPanel.SetLevels(bids, asks)

	trades, _ := m.marketService.GetTradesLast(in.Symbol, 20)
	m.orderbookPanel.SetTrades(trades)
}

func (m *Model) executeOrderAction(action panels.OrderActionMsg) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		sym := action.Instrument.Symbol

		switch action.Action {
		case panels.ActionCancel:
			if err := m.marketService.CancelOrder(ctx, sym, action.OrderID); err != nil {
				return orderResultMsg{message: "✗ Cancel failed: " + err.Error()}
			}
			return orderResultMsg{message: fmt.Sprintf("✓ Cancel sent (ID: %d)", action.OrderID)}

		case panels.ActionModify:
			trades, err := m.marketService.ModifyOrder(ctx, sym, core.Modify{
				ID:       action.OrderID,
				Side:     action.Side,
				Price:    action.Price,
				Quantity: action.Quantity,
			})
			if err != nil {
				return orderResultMsg{message: "✗ Modify failed: " + err.Error()}
			}
			return orderResultMsg{message: fmt.Sprintf("✓ Modify sent (ID: %d, %d trades)", action.OrderID, len(trades))}

		default:
			id, err := m.marketService.NextID(sym)
			if err != nil {
				return orderResultMsg{message: "✗ Order failed: " + err.Error()}
			}
			trades, err := m.marketService.AddOrder(ctx, sym, core.Order{
				ID:       id,
				Side:     action.Side,
				Type:     action.Type,
				Price:    action.Price,
				Quantity: action.Quantity,
			})
			if err != nil {
				return orderResultMsg{message: "✗ Order failed: " + err.Error()}
			}

			var filled core.Quantity
			var totalValue int64
			for _, tr := range trades {
				filled += tr.Ask.Quantity
				totalValue += int64(tr.Ask.Price) * int64(tr.Ask.Quantity)
			}
			if filled > 0 {
				avgPrice := totalValue / int64(filled)
				return orderResultMsg{message: fmt.Sprintf("✓ Filled %d @ %d (ID: %d)", filled, avgPrice, id)}
			}
			return orderResultMsg{message: fmt.Sprintf("✓ Order placed (ID: %d)", id)}
		}
	}
}

func (m *Model) listenMarketEvents() tea.Cmd {
	return func() tea.Msg {
		events := m.marketService.Events()
		ev, ok := <-events
		if !ok {
			return nil
		}
		return panels.MarketUpdateMsg{
			Symbol: ev.Symbol,
			Event:  ev.Event,
		}
	}
}

// tickMsg is sent periodically to refresh data.
type tickMsg struct{}

func (m *Model) tickRefresh() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}

// orderResultMsg is sent after an order is processed.
type orderResultMsg struct {
	message string
}
