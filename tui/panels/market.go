package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"limitbook/internal/market"
	marketview "limitbook/internal/market/view"
	"limitbook/internal/orderbook/core"
	"limitbook/tui/styles"
)

// MarketOverviewPanel displays current prices for all instruments.
type MarketOverviewPanel struct {
	instruments   []market.Instrument
	prices        map[market.Symbol]marketview.BestPrices
	selectedIndex int
	focused       bool
	width         int
	height        int
}

// NewMarketOverviewPanel creates a new market overview panel.
func NewMarketOverviewPanel(instruments []market.Instrument) *MarketOverviewPanel {
	return &MarketOverviewPanel{
		instruments: instruments,
		prices:      make(map[market.Symbol]marketview.BestPrices),
	}
}

// Init initializes the panel.
func (p *MarketOverviewPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MarketOverviewPanel) Update(msg tea.Msg) (*MarketOverviewPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.instruments)-1 {
				p.selectedIndex++
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *MarketOverviewPanel) View() string {
	var content strings.Builder

	// Header
	header := fmt.Sprintf("%-8s %10s %10s %10s %10s %10s",
		"Symbol", "Bid", "BidSz", "Ask", "AskSz", "Last")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	// Rows
	for i, in := range p.instruments {
		prices := p.prices[in.Symbol]

		bidPrice := "-"
		bidSize := "-"
		askPrice := "-"
		askSize := "-"
		last := "-"

		if prices.BidOK {
			bidPrice = styles.FormatPrice(int64(prices.BidPrice), in.Decimals)
			bidSize = fmt.Sprintf("%d", prices.BidSize)
		}
		if prices.AskOK {
			askPrice = styles.FormatPrice(int64(prices.AskPrice), in.Decimals)
			askSize = fmt.Sprintf("%d", prices.AskSize)
		}
		if prices.HasLast {
			last = styles.FormatPrice(int64(prices.LastPrice), in.Decimals)
		}

		row := fmt.Sprintf("%-8s %10s %10s %10s %10s %10s",
			in.Symbol, bidPrice, bidSize, askPrice, askSize, last)

		style := styles.RowStyle
		if i == p.selectedIndex && p.focused {
			style = styles.SelectedRowStyle
		}
		content.WriteString(style.Render(row))
		if i < len(p.instruments)-1 {
			content.WriteString("\n")
		}
	}

	// Apply panel styling
	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📈 Market Overview", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *MarketOverviewPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *MarketOverviewPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetSnapshot sets all instrument prices from a market snapshot.
func (p *MarketOverviewPanel) SetSnapshot(snap marketview.MarketSnapshot) {
	for sym, prices := range snap.BySymbol {
		p.prices[sym] = prices
	}
}

// SelectedInstrument returns the currently selected instrument.
func (p *MarketOverviewPanel) SelectedInstrument() market.Instrument {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.instruments) {
		return p.instruments[p.selectedIndex]
	}
	return market.Instrument{}
}

// MarketUpdateMsg is sent when market data updates.
type MarketUpdateMsg struct {
	Symbol market.Symbol
	Event  core.Event
}
