package client

import (
	"encoding/json"
	"sync"

	"github.com/verdantis/herbfront/client/session"
)

// basketStorageKey is the durable-storage key the basket is saved under.
const basketStorageKey = "basket"

// BasketItem is one line of the basket: a priced offer of an herb and a
// quantity.
type BasketItem struct {
	HerbID   int64  `json:"herb_id"`
	PriceID  int64  `json:"price_id"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

// Basket is the client-side shopping basket, persisted to the same durable
// storage as the session. It has no server-side counterpart.
type Basket struct {
	mu      sync.Mutex
	items   []BasketItem
	storage session.Storage
}

// NewBasket creates a basket backed by the store's durable storage and loads
// any previously saved items.
func NewBasket(store *session.Store) *Basket {
	b := &Basket{storage: store.DurableStorage()}
	b.load()
	return b
}

// Add puts an item in the basket. An existing line for the same herb and
// price absorbs the quantity instead of creating a duplicate line.
func (b *Basket) Add(item BasketItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		if b.items[i].HerbID == item.HerbID && b.items[i].PriceID == item.PriceID {
			b.items[i].Quantity += item.Quantity
			return b.save()
		}
	}
	b.items = append(b.items, item)
	return b.save()
}

// Remove drops the line matching the herb and price pair, if present.
func (b *Basket) Remove(herbID, priceID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.items[:0]
	for _, it := range b.items {
		if !(it.HerbID == herbID && it.PriceID == priceID) {
			kept = append(kept, it)
		}
	}
	b.items = kept
	return b.save()
}

// Clear empties the basket.
func (b *Basket) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
	return b.save()
}

// Items returns a copy of the basket lines.
func (b *Basket) Items() []BasketItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BasketItem, len(b.items))
	copy(out, b.items)
	return out
}

// Len returns the number of distinct lines.
func (b *Basket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Basket) save() error {
	raw, err := json.Marshal(b.items)
	if err != nil {
		return err
	}
	return b.storage.Set(basketStorageKey, string(raw))
}

func (b *Basket) load() {
	raw, err := b.storage.Get(basketStorageKey)
	if err != nil {
		return
	}
	var items []BasketItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return
	}
	b.items = items
}
