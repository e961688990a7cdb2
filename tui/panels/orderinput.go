package panels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"limitbook/internal/market"
	"limitbook/internal/orderbook/core"
	"limitbook/tui/styles"
)

// OrderAction is what the order entry form does on submit.
type OrderAction int

const (
	ActionPlace OrderAction = iota
	ActionCancel
	ActionModify
)

// OrderInputField represents the currently focused input field.
type OrderInputField int

const (
	FieldSymbol OrderInputField = iota
	FieldAction
	FieldOrderID
	FieldSide
	FieldType
	FieldPrice
	FieldQuantity
	FieldSubmit
)

// OrderInputPanel handles order entry with symbol autocomplete. It can place
// a new order, cancel a resting one by id, or modify one by id.
type OrderInputPanel struct {
	instruments   []market.Instrument
	symbolInput   textinput.Model
	orderIDInput  textinput.Model
	priceInput    textinput.Model
	quantityInput textinput.Model

	// Dropdown state
	showDropdown     bool
	dropdownItems    []string
	dropdownFiltered []string
	dropdownIndex    int

	actionOptions []string
	actionIndex   int

	sideOptions []string
	sideIndex   int

	typeOptions []string
	typeIndex   int

	currentField OrderInputField

	selectedInstrument *market.Instrument

	focused bool
	width   int
	height  int
}

// NewOrderInputPanel creates a new order input panel.
func NewOrderInputPanel(instruments []market.Instrument) *OrderInputPanel {
	symbols := make([]string, len(instruments))
	for i, in := range instruments {
		symbols[i] = string(in.Symbol)
	}

	symbolInput := textinput.New()
	symbolInput.Placeholder = "Search symbol..."
	symbolInput.Width = 15
	symbolInput.CharLimit = 10

	orderIDInput := textinput.New()
	orderIDInput.Placeholder = "Order ID"
	orderIDInput.Width = 12
	orderIDInput.CharLimit = 20

	priceInput := textinput.New()
	priceInput.Placeholder = "Price"
	priceInput.Width = 10
	priceInput.CharLimit = 15

	quantityInput := textinput.New()
	quantityInput.Placeholder = "Quantity"
	quantityInput.Width = 10
	quantityInput.CharLimit = 15

	return &OrderInputPanel{
		instruments:      instruments,
		symbolInput:      symbolInput,
		orderIDInput:     orderIDInput,
		priceInput:       priceInput,
		quantityInput:    quantityInput,
		dropdownItems:    symbols,
		dropdownFiltered: symbols,
		actionOptions:    []string{"PLACE", "CANCEL", "MODIFY"},
		sideOptions:      []string{"BUY", "SELL"},
		typeOptions:      []string{"GTC", "FAK"},
		currentField:     FieldSymbol,
	}
}

// Init initializes the panel.
func (p *OrderInputPanel) Init() tea.Cmd {
	return textinput.Blink
}

func (p *OrderInputPanel) action() OrderAction {
	return OrderAction(p.actionIndex)
}

// Update handles messages for the panel.
func (p *OrderInputPanel) Update(msg tea.Msg) (*OrderInputPanel, tea.Cmd) {
	if !p.focused {
		return p, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		// down arrow to next field
		case key.Matches(msg, key.NewBinding(key.WithKeys("down"))):
			p.nextField()
			return p, nil

		// up arrow to previous field
		case key.Matches(msg, key.NewBinding(key.WithKeys("up"))):
			p.prevField()
			return p, nil

		// Enter to submit or select dropdown
		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if p.currentField == FieldSubmit {
				return p, p.submit()
			}
			if p.showDropdown && p.currentField == FieldSymbol {
				p.selectDropdownItem()
				p.showDropdown = false
				p.nextField()
				return p, nil
			}
			p.nextField()
			return p, nil

		// Escape to close dropdown
		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			p.showDropdown = false
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("left"))):
			if p.showDropdown {
				if p.dropdownIndex > 0 {
					p.dropdownIndex--
				}
				return p, nil
			}
			if idx, _ := p.optionState(); idx != nil && *idx > 0 {
				*idx = *idx - 1
				return p, nil
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("right"))):
			if p.showDropdown {
				if p.dropdownIndex < len(p.dropdownFiltered)-1 {
					p.dropdownIndex++
				}
				return p, nil
			}
			if idx, opts := p.optionState(); idx != nil && *idx < len(opts)-1 {
				*idx = *idx + 1
				return p, nil
			}
		}
	}

	// Update the appropriate text input
	switch p.currentField {
	case FieldSymbol:
		p.symbolInput, cmd = p.symbolInput.Update(msg)
		p.filterDropdown(p.symbolInput.Value())
		p.showDropdown = len(p.symbolInput.Value()) > 0

	case FieldOrderID:
		p.orderIDInput, cmd = p.orderIDInput.Update(msg)

	case FieldPrice:
		p.priceInput, cmd = p.priceInput.Update(msg)

	case FieldQuantity:
		p.quantityInput, cmd = p.quantityInput.Update(msg)
	}

	return p, cmd
}

// optionState returns the selector state for the current field, if it is one
// of the left/right option fields.
func (p *OrderInputPanel) optionState() (*int, []string) {
	switch p.currentField {
	case FieldAction:
		return &p.actionIndex, p.actionOptions
	case FieldSide:
		return &p.sideIndex, p.sideOptions
	case FieldType:
		return &p.typeIndex, p.typeOptions
	default:
		return nil, nil
	}
}

// View renders the panel.
func (p *OrderInputPanel) View() string {
	var content strings.Builder

	content.WriteString(p.renderField("Symbol", FieldSymbol, p.renderSymbolField()))
	content.WriteString("\n")

	content.WriteString(p.renderField("Action", FieldAction, p.renderOptions(p.actionOptions, p.actionIndex, FieldAction)))
	content.WriteString("\n")

	if p.action() != ActionPlace {
		content.WriteString(p.renderField("ID", FieldOrderID, p.orderIDInput.View()))
		content.WriteString("\n")
	}

	if p.action() != ActionCancel {
		content.WriteString(p.renderField("Side", FieldSide, p.renderSideField()))
		content.WriteString("\n")

		if p.action() == ActionPlace {
			content.WriteString(p.renderField("Type", FieldType, p.renderOptions(p.typeOptions, p.typeIndex, FieldType)))
			content.WriteString("\n")
		}

		content.WriteString(p.renderField("Price", FieldPrice, p.priceInput.View()))
		content.WriteString("\n")

		content.WriteString(p.renderField("Qty", FieldQuantity, p.quantityInput.View()))
		content.WriteString("\n")
	}

	content.WriteString("\n")

	// Submit button
	submitStyle := styles.InputStyle
	if p.currentField == FieldSubmit && p.focused {
		submitStyle = styles.FocusedInputStyle.Bold(true).Foreground(styles.PrimaryColor)
	}
	content.WriteString(submitStyle.Render("  [Submit]  "))

	// Order summary
	content.WriteString("\n\n")
	content.WriteString(p.renderSummary())

	// Apply panel styling
	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📝 Order Entry", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *OrderInputPanel) renderField(label string, field OrderInputField, inputView string) string {
	labelStyle := styles.LabelStyle
	if p.currentField == field && p.focused {
		labelStyle = labelStyle.Foreground(styles.PrimaryColor)
	}
	labelStr := labelStyle.Render(fmt.Sprintf("%-8s", label))
	return labelStr + inputView
}

func (p *OrderInputPanel) renderSymbolField() string {
	var result strings.Builder

	inputStyle := styles.InputStyle
	if p.currentField == FieldSymbol && p.focused {
		inputStyle = styles.FocusedInputStyle
		p.symbolInput.Focus()
	} else {
		p.symbolInput.Blur()
	}

	result.WriteString(inputStyle.Render(p.symbolInput.View()))

	if p.showDropdown && len(p.dropdownFiltered) > 0 {
		result.WriteString("\n")
		maxShow := 5
		if len(p.dropdownFiltered) < maxShow {
			maxShow = len(p.dropdownFiltered)
		}

		for i := 0; i < maxShow; i++ {
			item := p.dropdownFiltered[i]
			style := styles.DropdownItemStyle
			if i == p.dropdownIndex {
				style = styles.DropdownSelectedStyle
			}

			highlighted := p.highlightMatch(item, p.symbolInput.Value())
			result.WriteString("         " + style.Render(highlighted))
			if i < maxShow-1 {
				result.WriteString("\n")
			}
		}
	}

	return result.String()
}

func (p *OrderInputPanel) renderOptions(options []string, index int, field OrderInputField) string {
	var items []string
	for i, opt := range options {
		style := styles.DropdownItemStyle
		if i == index {
			if p.currentField == field && p.focused {
				style = styles.DropdownSelectedStyle
			} else {
				style = styles.DropdownItemStyle.Bold(true)
			}
		}
		items = append(items, style.Render(opt))
	}
	return strings.Join(items, " | ")
}

func (p *OrderInputPanel) renderSideField() string {
	var items []string
	for i, opt := range p.sideOptions {
		style := styles.DropdownItemStyle
		if i == p.sideIndex {
			if p.currentField == FieldSide && p.focused {
				style = styles.DropdownSelectedStyle
			} else {
				style = styles.DropdownItemStyle.Bold(true)
			}
		}

		// Color code buy/sell
		if opt == "BUY" && i == p.sideIndex {
			style = style.Foreground(styles.BuyColor)
		} else if opt == "SELL" && i == p.sideIndex {
			style = style.Foreground(styles.SellColor)
		}

		items = append(items, style.Render(opt))
	}
	return strings.Join(items, " | ")
}

func (p *OrderInputPanel) renderSummary() string {
	var parts []string

	symbol := p.symbolInput.Value()
	if p.selectedInstrument != nil {
		symbol = string(p.selectedInstrument.Symbol)
	}
	if symbol == "" {
		symbol = "---"
	}
	parts = append(parts, symbol, p.actionOptions[p.actionIndex])

	if p.action() != ActionPlace {
		id := p.orderIDInput.Value()
		if id == "" {
			id = "?"
		}
		parts = append(parts, "#"+id)
	}

	if p.action() != ActionCancel {
		side := p.sideOptions[p.sideIndex]
		sideStyle := styles.BuyStyle
		if side == "SELL" {
			sideStyle = styles.SellStyle
		}
		parts = append(parts, sideStyle.Render(side))

		if p.action() == ActionPlace {
			parts = append(parts, p.typeOptions[p.typeIndex])
		}

		price := p.priceInput.Value()
		if price == "" {
			price = "0"
		}
		qty := p.quantityInput.Value()
		if qty == "" {
			qty = "0"
		}
		parts = append(parts, "@"+price, "x"+qty)
	}

	return styles.HeaderStyle.Render("Order: ") + strings.Join(parts, " ")
}

func (p *OrderInputPanel) filterDropdown(query string) {
	query = strings.ToUpper(query)
	p.dropdownFiltered = nil
	p.dropdownIndex = 0

	for _, item := range p.dropdownItems {
		if strings.Contains(strings.ToUpper(item), query) {
			p.dropdownFiltered = append(p.dropdownFiltered, item)
		}
	}
}

func (p *OrderInputPanel) highlightMatch(item, query string) string {
	if query == "" {
		return item
	}

	upper := strings.ToUpper(item)
	queryUpper := strings.ToUpper(query)
	idx := strings.Index(upper, queryUpper)
	if idx == -1 {
		return item
	}

	before := item[:idx]
	match := item[idx : idx+len(query)]
	after := item[idx+len(query):]

	return before + styles.DropdownMatchStyle.Render(match) + after
}

func (p *OrderInputPanel) selectDropdownItem() {
	if p.dropdownIndex < len(p.dropdownFiltered) {
		selected := p.dropdownFiltered[p.dropdownIndex]
		p.symbolInput.SetValue(selected)

		for i, in := range p.instruments {
			if string(in.Symbol) == selected {
				p.selectedInstrument = &p.instruments[i]
				break
			}
		}
	}
}

// fieldOrder returns the active field sequence for the current action.
func (p *OrderInputPanel) fieldOrder() []OrderInputField {
	switch p.action() {
	case ActionCancel:
		return []OrderInputField{FieldSymbol, FieldAction, FieldOrderID, FieldSubmit}
	case ActionModify:
		return []OrderInputField{FieldSymbol, FieldAction, FieldOrderID, FieldSide, FieldPrice, FieldQuantity, FieldSubmit}
	default:
		return []OrderInputField{FieldSymbol, FieldAction, FieldSide, FieldType, FieldPrice, FieldQuantity, FieldSubmit}
	}
}

func (p *OrderInputPanel) moveField(delta int) {
	p.showDropdown = false
	if p.currentField == FieldSymbol {
		p.selectDropdownItem()
	}

	order := p.fieldOrder()
	pos := 0
	for i, f := range order {
		if f == p.currentField {
			pos = i
			break
		}
	}
	pos = (pos + delta + len(order)) % len(order)
	p.currentField = order[pos]

	p.symbolInput.Blur()
	p.orderIDInput.Blur()
	p.priceInput.Blur()
	p.quantityInput.Blur()
	switch p.currentField {
	case FieldSymbol:
		p.symbolInput.Focus()
	case FieldOrderID:
		p.orderIDInput.Focus()
	case FieldPrice:
		p.priceInput.Focus()
	case FieldQuantity:
		p.quantityInput.Focus()
	}
}

func (p *OrderInputPanel) nextField() { p.moveField(1) }
func (p *OrderInputPanel) prevField() { p.moveField(-1) }

func (p *OrderInputPanel) submit() tea.Cmd {
	if p.selectedInstrument == nil {
		return nil
	}
	in := *p.selectedInstrument

	side := core.SideBuy
	if p.sideIndex == 1 {
		side = core.SideSell
	}
	typ := core.GoodTillCancel
	if p.typeIndex == 1 {
		typ = core.FillAndKill
	}

	var orderID uint64
	if p.action() != ActionPlace {
		id, err := strconv.ParseUint(p.orderIDInput.Value(), 10, 64)
		if err != nil {
			return nil
		}
		orderID = id
	}

	var price, qty int64
	if p.action() != ActionCancel {
		var err error
		price, err = strconv.ParseInt(p.priceInput.Value(), 10, 64)
		if err != nil || price <= 0 {
			return nil
		}
		qty, err = strconv.ParseInt(p.quantityInput.Value(), 10, 64)
		if err != nil || qty <= 0 {
			return nil
		}
	}

	action := p.action()
	return func() tea.Msg {
		return OrderActionMsg{
			Action:     action,
			Instrument: in,
			OrderID:    core.OrderID(orderID),
			Side:       side,
			Type:       typ,
			Price:      core.Price(price),
			Quantity:   core.Quantity(qty),
		}
	}
}

// SetFocus sets the focus state of the panel.
func (p *OrderInputPanel) SetFocus(focused bool) {
	p.focused = focused
	if focused {
		switch p.currentField {
		case FieldSymbol:
			p.symbolInput.Focus()
		case FieldOrderID:
			p.orderIDInput.Focus()
		case FieldPrice:
			p.priceInput.Focus()
		case FieldQuantity:
			p.quantityInput.Focus()
		}
	} else {
		p.symbolInput.Blur()
		p.orderIDInput.Blur()
		p.priceInput.Blur()
		p.quantityInput.Blur()
	}
}

// SetSize sets the panel dimensions.
func (p *OrderInputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetInstrument pre-fills the symbol field.
func (p *OrderInputPanel) SetInstrument(in market.Instrument) {
	p.symbolInput.SetValue(string(in.Symbol))
	p.selectedInstrument = &in
}

// Reset clears the input fields.
func (p *OrderInputPanel) Reset() {
	p.symbolInput.SetValue("")
	p.orderIDInput.SetValue("")
	p.priceInput.SetValue("")
	p.quantityInput.SetValue("")
	p.selectedInstrument = nil
	p.currentField = FieldSymbol
	p.actionIndex = 0
	p.sideIndex = 0
	p.typeIndex = 0
	p.showDropdown = false
}

// OrderActionMsg is sent when the order form is submitted.
type OrderActionMsg struct {
	Action     OrderAction
	Instrument market.Instrument
	OrderID    core.OrderID
	Side       core.Side
	Type       core.OrderType
	Price      core.Price
	Quantity   core.Quantity
}
