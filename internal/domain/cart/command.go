package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kalipos/storefront/internal/domain/catalog"
)

// Key identifies which key event triggered command evaluation.
type Key int8

const (
	// KeyEnter is the Enter key.
	KeyEnter Key = iota
	// KeyDigit1 through KeyDigit9 are the digit keys 1..9. Their numeric
	// value is Quantity(); the constants exist so callers cannot pass
	// arbitrary integers.
	KeyDigit1
	KeyDigit2
	KeyDigit3
	KeyDigit4
	KeyDigit5
	KeyDigit6
	KeyDigit7
	KeyDigit8
	KeyDigit9
)

// DigitKey maps a digit 1..9 to its Key. The second return is false for
// anything outside that range.
func DigitKey(d int) (Key, bool) {
	if d < 1 || d > 9 {
		return KeyEnter, false
	}
	return Key(int(KeyDigit1) + d - 1), true
}

// Quantity returns the numeric value of a digit key, or 0 for Enter.
func (k Key) Quantity() int {
	if k < KeyDigit1 || k > KeyDigit9 {
		return 0
	}
	return int(k-KeyDigit1) + 1
}

// Op enumerates the closed set of commands the search box can produce.
type Op int8

const (
	// OpNoOp means nothing actionable was entered.
	OpNoOp Op = iota
	// OpInvalid means a recognized command was malformed (e.g. "save+"
	// without a name). The search text is kept so the user can fix it.
	OpInvalid
	// OpAddItem adds Item with Quantity to the cart.
	OpAddItem
	// OpSaveCart saves the current cart under Name.
	OpSaveCart
	// OpCreateOrder submits the current cart as an order.
	OpCreateOrder
)

// Command is the result of evaluating one search-box event.
type Command struct {
	Op       Op
	Item     catalog.Item    // set for OpAddItem
	Quantity decimal.Decimal // set for OpAddItem
	Name     string          // set for OpSaveCart
}

// ClearsSearch reports whether the caller should clear the search box after
// executing the command.
func (c Command) ClearsSearch() bool {
	return c.Op != OpNoOp && c.Op != OpInvalid
}

// Input is one search-box event: the current text, the key that triggered
// evaluation, and the catalog views available at that moment.
type Input struct {
	Text     string
	Key      Key
	Catalog  []catalog.Item // full catalog, for exact-name resolution
	Filtered []catalog.Item // current filtered view, for positional fallback
}

const savePrefix = "save+"

// Evaluate interprets one search-box event into a command. It is a pure
// function; executing the command (and clearing the search text) is the
// caller's job.
func Evaluate(in Input) Command {
	trimmed := strings.TrimSpace(in.Text)
	lowered := strings.ToLower(trimmed)

	if strings.HasPrefix(lowered, savePrefix) {
		name := strings.TrimSpace(trimmed[len(savePrefix):])
		if name == "" {
			return Command{Op: OpInvalid}
		}
		return Command{Op: OpSaveCart, Name: name}
	}

	if lowered == "create order" || lowered == "createorder" {
		return Command{Op: OpCreateOrder}
	}

	if qty := in.Key.Quantity(); qty > 0 {
		if trimmed == "" || len(in.Filtered) == 0 {
			return Command{Op: OpNoOp}
		}
		item, _ := resolve(lowered, in.Catalog, in.Filtered)
		return Command{Op: OpAddItem, Item: item, Quantity: decimal.NewFromInt(int64(qty))}
	}

	// Enter with no special command: add the resolved item, or synthesize a
	// brand-new one from the raw text.
	if item, ok := resolve(lowered, in.Catalog, in.Filtered); ok {
		return Command{Op: OpAddItem, Item: item, Quantity: decimal.NewFromInt(1)}
	}
	if trimmed != "" {
		return Command{Op: OpAddItem, Item: catalog.AdHoc(trimmed), Quantity: decimal.NewFromInt(1)}
	}
	return Command{Op: OpNoOp}
}

// resolve finds the target item for an add: an exact case-insensitive name
// match over the full catalog wins, otherwise the first filtered entry.
func resolve(lowered string, full, filtered []catalog.Item) (catalog.Item, bool) {
	for _, item := range full {
		if strings.ToLower(item.Name) == lowered {
			return item, true
		}
	}
	if len(filtered) > 0 {
		return filtered[0], true
	}
	return catalog.Item{}, false
}
