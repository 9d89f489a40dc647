package npc

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/combatcore/internal/game/dice"
)

// CurrencyDrop defines the range of currency an NPC can drop on death.
type CurrencyDrop struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ItemDrop is one possible item in a loot table. Chance is a percent in 1..100.
type ItemDrop struct {
	ItemID string `yaml:"item"`
	Chance int    `yaml:"chance"`
	MinQty int    `yaml:"min_qty"`
	MaxQty int    `yaml:"max_qty"`
}

// LootTable defines what an NPC leaves in its remains.
type LootTable struct {
	Currency *CurrencyDrop `yaml:"currency"`
	Items    []ItemDrop    `yaml:"items"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Precondition: lt must not be nil.
// Postcondition: Returns nil iff all currency and item constraints hold;
// an empty loot table is valid.
func (lt *LootTable) Validate() error {
	if lt.Currency != nil {
		if lt.Currency.Min < 0 {
			return fmt.Errorf("loot table: currency min must be >= 0, got %d", lt.Currency.Min)
		}
		if lt.Currency.Min > lt.Currency.Max {
			return fmt.Errorf("loot table: currency min (%d) must be <= max (%d)", lt.Currency.Min, lt.Currency.Max)
		}
	}
	for i, item := range lt.Items {
		if item.ItemID == "" {
			return fmt.Errorf("loot table: item[%d] must have a non-empty item id", i)
		}
		if item.Chance < 1 || item.Chance > 100 {
			return fmt.Errorf("loot table: item[%d] chance must be in [1, 100], got %d", i, item.Chance)
		}
		if item.MinQty < 1 {
			return fmt.Errorf("loot table: item[%d] min_qty must be >= 1, got %d", i, item.MinQty)
		}
		if item.MinQty > item.MaxQty {
			return fmt.Errorf("loot table: item[%d] min_qty (%d) must be <= max_qty (%d)", i, item.MinQty, item.MaxQty)
		}
	}
	return nil
}

// LootItem is a single item instance in a loot result.
type LootItem struct {
	ItemDefID  string
	InstanceID string
	Quantity   int
}

// LootResult holds the generated loot from a single NPC kill.
type LootResult struct {
	Currency int
	Items    []LootItem
}

// GenerateLoot rolls loot from lt using src.
//
// Precondition: lt must have passed Validate(); src must be non-nil.
// Postcondition: Currency is in [Currency.Min, Currency.Max] if currency is set;
// each item's Quantity is in [MinQty, MaxQty] for items that pass the chance roll.
func GenerateLoot(lt LootTable, src dice.Source) LootResult {
	var result LootResult

	if lt.Currency != nil && lt.Currency.Max > 0 {
		result.Currency = dice.Between(src, lt.Currency.Min, lt.Currency.Max)
	}

	for _, item := range lt.Items {
		if src.Intn(100) >= item.Chance {
			continue
		}
		result.Items = append(result.Items, LootItem{
			ItemDefID:  item.ItemID,
			InstanceID: uuid.New().String(),
			Quantity:   dice.Between(src, item.MinQty, item.MaxQty),
		})
	}

	return result
}
