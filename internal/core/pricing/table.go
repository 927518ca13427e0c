package pricing

import (
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Table maps (item name, tier) to a suggested unit price. Loaded from a
// YAML file; missing entries are a normal condition, not an error.
type Table struct {
	mu    sync.RWMutex
	items map[string]map[int]decimal.Decimal
}

type tableFile struct {
	Items map[string]struct {
		Tiers map[int]string `yaml:"tiers"`
	} `yaml:"items"`
}

// LoadTable reads and parses the price table file. A load error is
// non-fatal to the edit form: callers surface it as a warning and the
// form stays usable with manual prices.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price table: %w", err)
	}
	return ParseTable(data)
}

func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse price table: %w", err)
	}

	items := make(map[string]map[int]decimal.Decimal, len(f.Items))
	for name, entry := range f.Items {
		tiers := make(map[int]decimal.Decimal, len(entry.Tiers))
		for tier, raw := range entry.Tiers {
			p, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("price table: item %q tier %d: bad price %q", name, tier, raw)
			}
			tiers[tier] = p
		}
		items[name] = tiers
	}
	return &Table{items: items}, nil
}

// Lookup returns the unit price for an item at a tier.
func (t *Table) Lookup(item string, tier int) (decimal.Decimal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tiers, ok := t.items[item]
	if !ok {
		return decimal.Decimal{}, false
	}
	p, ok := tiers[tier]
	return p, ok
}

// Reload swaps in a freshly parsed table in place, so long-lived
// references keep working across price updates.
func (t *Table) Reload(path string) error {
	fresh, err := LoadTable(path)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.items = fresh.items
	t.mu.Unlock()
	return nil
}
