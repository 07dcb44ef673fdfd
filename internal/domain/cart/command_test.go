package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalipos/storefront/internal/domain/catalog"
)

func item(name, category string) catalog.Item {
	return catalog.Item{Name: name, Category: category, Supplier: "Acme", Origin: catalog.OriginCatalog}
}

func TestEvaluate_SaveCart(t *testing.T) {
	cmd := Evaluate(Input{Text: "save+Weekly", Key: KeyEnter})

	assert.Equal(t, OpSaveCart, cmd.Op)
	assert.Equal(t, "Weekly", cmd.Name)
	assert.True(t, cmd.ClearsSearch())
}

func TestEvaluate_SaveCartTrimsName(t *testing.T) {
	cmd := Evaluate(Input{Text: "  SAVE+  Weekly Order  ", Key: KeyEnter})

	assert.Equal(t, OpSaveCart, cmd.Op)
	assert.Equal(t, "Weekly Order", cmd.Name)
}

func TestEvaluate_SaveCartWithoutNameIsInvalid(t *testing.T) {
	cmd := Evaluate(Input{Text: "save+", Key: KeyEnter})

	assert.Equal(t, OpInvalid, cmd.Op)
	assert.False(t, cmd.ClearsSearch())
}

func TestEvaluate_CreateOrder(t *testing.T) {
	for _, text := range []string{"create order", "createorder", " CreateOrder "} {
		cmd := Evaluate(Input{Text: text, Key: KeyEnter})
		assert.Equal(t, OpCreateOrder, cmd.Op, "text %q", text)
		assert.True(t, cmd.ClearsSearch())
	}
}

func TestEvaluate_DigitAddsFirstFiltered(t *testing.T) {
	sponge := item("Sponge", "Cleaning")
	key, ok := DigitKey(3)
	require.True(t, ok)

	cmd := Evaluate(Input{
		Text:     "spo",
		Key:      key,
		Catalog:  []catalog.Item{sponge},
		Filtered: []catalog.Item{sponge},
	})

	require.Equal(t, OpAddItem, cmd.Op)
	assert.Equal(t, "Sponge", cmd.Item.Name)
	assert.True(t, decimal.NewFromInt(3).Equal(cmd.Quantity))
	assert.True(t, cmd.ClearsSearch())
}

func TestEvaluate_DigitExactMatchBeatsFiltered(t *testing.T) {
	box := item("Box", "Storage")
	sponge := item("Sponge", "Cleaning")
	key, _ := DigitKey(2)

	// The filtered view leads with Box, but the text names Sponge exactly.
	cmd := Evaluate(Input{
		Text:     "sponge",
		Key:      key,
		Catalog:  []catalog.Item{box, sponge},
		Filtered: []catalog.Item{box, sponge},
	})

	require.Equal(t, OpAddItem, cmd.Op)
	assert.Equal(t, "Sponge", cmd.Item.Name)
}

func TestEvaluate_DigitWithEmptyTextIsNoOp(t *testing.T) {
	key, _ := DigitKey(5)
	cmd := Evaluate(Input{Text: "", Key: key, Filtered: []catalog.Item{item("Sponge", "Cleaning")}})

	assert.Equal(t, OpNoOp, cmd.Op)
}

func TestEvaluate_DigitWithEmptyFilterIsNoOp(t *testing.T) {
	key, _ := DigitKey(5)
	cmd := Evaluate(Input{Text: "xyz", Key: key, Catalog: []catalog.Item{item("Sponge", "Cleaning")}})

	assert.Equal(t, OpNoOp, cmd.Op)
}

func TestEvaluate_EnterAddsResolvedWithQuantityOne(t *testing.T) {
	sponge := item("Sponge", "Cleaning")
	cmd := Evaluate(Input{
		Text:     "Sponge",
		Key:      KeyEnter,
		Catalog:  []catalog.Item{sponge},
		Filtered: []catalog.Item{sponge},
	})

	require.Equal(t, OpAddItem, cmd.Op)
	assert.Equal(t, "Sponge", cmd.Item.Name)
	assert.Equal(t, catalog.OriginCatalog, cmd.Item.Origin)
	assert.True(t, decimal.NewFromInt(1).Equal(cmd.Quantity))
}

func TestEvaluate_EnterUnmatchedTextCreatesAdHocItem(t *testing.T) {
	cmd := Evaluate(Input{Text: "  Mystery Widget ", Key: KeyEnter})

	require.Equal(t, OpAddItem, cmd.Op)
	assert.Equal(t, "Mystery Widget", cmd.Item.Name)
	assert.Equal(t, "New Item", cmd.Item.Category)
	assert.Equal(t, "Unknown", cmd.Item.Supplier)
	assert.Equal(t, catalog.OriginAdHoc, cmd.Item.Origin)
	assert.True(t, decimal.NewFromInt(1).Equal(cmd.Quantity))
}

func TestEvaluate_EnterEmptyTextIsNoOp(t *testing.T) {
	cmd := Evaluate(Input{Text: "   ", Key: KeyEnter})

	assert.Equal(t, OpNoOp, cmd.Op)
	assert.False(t, cmd.ClearsSearch())
}

func TestDigitKey_Range(t *testing.T) {
	for d := 1; d <= 9; d++ {
		key, ok := DigitKey(d)
		require.True(t, ok)
		assert.Equal(t, d, key.Quantity())
	}

	_, ok := DigitKey(0)
	assert.False(t, ok)
	_, ok = DigitKey(10)
	assert.False(t, ok)
	assert.Equal(t, 0, KeyEnter.Quantity())
}
