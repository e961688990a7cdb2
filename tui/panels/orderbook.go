package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"limitbook/internal/market"
	"limitbook/internal/orderbook/core"
	"limitbook/tui/styles"
)

// OrderbookPanel displays the book for a selected instrument.
type OrderbookPanel struct {
	instrument   market.Instrument
	bids         []core.DepthLevel
	asks         []core.DepthLevel
	trades       []core.TradeEvent
	scrollOffset int
	focused      bool
	width        int
	height       int
	maxLevels    int
}

// NewOrderbookPanel creates a new orderbook panel.
func NewOrderbookPanel() *OrderbookPanel {
	return &OrderbookPanel{
		maxLevels: 10,
	}
}

// Init initializes the panel.
func (p *OrderbookPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *OrderbookPanel) Update(msg tea.Msg) (*OrderbookPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.scrollOffset > 0 {
				p.scrollOffset--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.scrollOffset < p.maxScroll() {
				p.scrollOffset++
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *OrderbookPanel) View() string {
	var content strings.Builder

	// Title with symbol
	name := "No instrument selected"
	if p.instrument.Symbol != "" {
		name = string(p.instrument.Symbol)
	}

	// Calculate available height for levels
	availableHeight := p.height - 6 // Account for header, title, borders
	levelsToShow := availableHeight / 2
	if levelsToShow > p.maxLevels {
		levelsToShow = p.maxLevels
	}
	if levelsToShow < 3 {
		levelsToShow = 3
	}

	// Header
	header := fmt.Sprintf("%10s %8s │ %8s %10s", "BidSz", "Bid", "Ask", "AskSz")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	bidsToShow := p.window(p.bids, levelsToShow)
	asksToShow := p.window(p.asks, levelsToShow)

	maxRows := len(bidsToShow)
	if len(asksToShow) > maxRows {
		maxRows = len(asksToShow)
	}

	// Render side by side
	for i := 0; i < maxRows; i++ {
		bidSize := ""
		bidPrice := ""
		askPrice := ""
		askSize := ""

		if i < len(bidsToShow) {
			bidSize = fmt.Sprintf("%d", bidsToShow[i].Quantity)
			bidPrice = styles.FormatPrice(int64(bidsToShow[i].Price), p.instrument.Decimals)
		}
		if i < len(asksToShow) {
			askPrice = styles.FormatPrice(int64(asksToShow[i].Price), p.instrument.Decimals)
			askSize = fmt.Sprintf("%d", asksToShow[i].Quantity)
		}

		bidPart := fmt.Sprintf("%10s %8s", bidSize, bidPrice)
		askPart := fmt.Sprintf("%8s %10s", askPrice, askSize)

		bidStyled := styles.BuyStyle.Render(bidPart)
		askStyled := styles.SellStyle.Render(askPart)

		content.WriteString(fmt.Sprintf("%s │ %s\n", bidStyled, askStyled))
	}

	// Recent trades section
	content.WriteString("\n")
	content.WriteString(styles.HeaderStyle.Render("Recent Trades"))
	content.WriteString("\n")

	tradesToShow := p.trades
	if len(tradesToShow) > 5 {
		tradesToShow = tradesToShow[len(tradesToShow)-5:]
	}

	for _, trade := range tradesToShow {
		price := styles.FormatPrice(int64(trade.Ask.Price), p.instrument.Decimals)
		size := fmt.Sprintf("%d", trade.Ask.Quantity)

		tradeStr := fmt.Sprintf("%8s @ %8s", size, price)
		content.WriteString(styles.PriceStyle.Render(tradeStr))
		content.WriteString("\n")
	}

	// Apply panel styling
	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle(fmt.Sprintf("📊 Orderbook - %s", name), p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// maxScroll is the deepest offset that still leaves a level visible on the
// longer side.
func (p *OrderbookPanel) maxScroll() int {
	n := len(p.bids)
	if len(p.asks) > n {
		n = len(p.asks)
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

// window returns the show levels visible at the current scroll offset,
// clamped so scrolling past the end shows the tail rather than nothing.
func (p *OrderbookPanel) window(levels []core.DepthLevel, show int) []core.DepthLevel {
	if len(levels) <= show {
		return levels
	}
	off := p.scrollOffset
	if off > len(levels)-show {
		off = len(levels) - show
	}
	if off < 0 {
		off = 0
	}
	return levels[off : off+show]
}

// SetFocus sets the focus state of the panel.
func (p *OrderbookPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *OrderbookPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetInstrument sets the instrument to display.
func (p *OrderbookPanel) SetInstrument(in market.Instrument) {
	p.instrument = in
	p.bids = nil
	p.asks = nil
	p.trades = nil
	p.scrollOffset = 0
}

// SetLevels sets the book levels.
func (p *OrderbookPanel) SetLevels(bids, asks []core.DepthLevel) {
	p.bids = bids
	p.asks = asks
}

// SetTrades sets the recent trades.
func (p *OrderbookPanel) SetTrades(trades []core.TradeEvent) {
	p.trades = trades
}

// AddTrade adds a trade to the display.
func (p *OrderbookPanel) AddTrade(trade core.TradeEvent) {
	p.trades = append(p.trades, trade)
	// Keep only last 20 trades
	if len(p.trades) > 20 {
		p.trades = p.trades[len(p.trades)-20:]
	}
}

// Instrument returns the current instrument.
func (p *OrderbookPanel) Instrument() market.Instrument {
	return p.instrument
}
