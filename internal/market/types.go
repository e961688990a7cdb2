package market

// Symbol uniquely identifies an instrument.
type Symbol string

// Instrument represents a tradeable instrument. Prices for it are expressed
// in integer ticks; Decimals says where the display decimal point goes.
type Instrument struct {
	Symbol   Symbol
	Name     string
	Decimals int8
}
