package main

import (
	"fmt"
	"log"

	"limitbook/internal/orderbook/core"
)

func mustAdd(book *core.Book, o core.Order) []core.Trade {
	trades, _, err := book.AddOrder(o)
	if err != nil {
		log.Fatalf("add order %d: %v", o.ID, err)
	}
	return trades
}

func printDepth(book *core.Book) {
	d := book.Depth()
	fmt.Println("  asks:")
	for i := len(d.Asks) - 1; i >= 0; i-- {
		fmt.Printf("    %6d x %d\n", d.Asks[i].Price, d.Asks[i].Quantity)
	}
	fmt.Println("  bids:")
	for _, l := range d.Bids {
		fmt.Printf("    %6d x %d\n", l.Price, l.Quantity)
	}
}

func printTrades(trades []core.Trade) {
	for _, tr := range trades {
		fmt.Printf("  trade: buy #%d @ %d / sell #%d @ %d, qty %d\n",
			tr.Bid.OrderID, tr.Bid.Price, tr.Ask.OrderID, tr.Ask.Price, tr.Bid.Quantity)
	}
}

func main() {
	book := core.NewBook()

	fmt.Println("== resting a bid ==")
	mustAdd(book, core.Order{ID: 1, Side: core.SideBuy, Type: core.GoodTillCancel, Price: 100, Quantity: 10})
	fmt.Printf("book size: %d\n", book.Size())

	fmt.Println("== building both sides ==")
	mustAdd(book, core.Order{ID: 2, Side: core.SideBuy, Type: core.GoodTillCancel, Price: 99, Quantity: 5})
	mustAdd(book, core.Order{ID: 3, Side: core.SideSell, Type: core.GoodTillCancel, Price: 101, Quantity: 8})
	mustAdd(book, core.Order{ID: 4, Side: core.SideSell, Type: core.GoodTillCancel, Price: 102, Quantity: 4})
	printDepth(book)

	fmt.Println("== crossing sell eats the best bid ==")
	printTrades(mustAdd(book, core.Order{ID: 5, Side: core.SideSell, Type: core.GoodTillCancel, Price: 100, Quantity: 6}))
	printDepth(book)

	fmt.Println("== fill-and-kill takes what it can ==")
	printTrades(mustAdd(book, core.Order{ID: 6, Side: core.SideBuy, Type: core.FillAndKill, Price: 101, Quantity: 20}))
	printDepth(book)

	fmt.Println("== modify reprices across the spread ==")
	trades, _, err := book.ModifyOrder(core.Modify{ID: 2, Side: core.SideBuy, Price: 102, Quantity: 5})
	if err != nil {
		log.Fatalf("modify order 2: %v", err)
	}
	printTrades(trades)
	printDepth(book)

	fmt.Println("== cancel drains the book ==")
	book.CancelOrder(1)
	book.CancelOrder(2)
	fmt.Printf("book size: %d\n", book.Size())
}
