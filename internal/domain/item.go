package domain

import "strings"

// A catalog item that can be delivered or picked up.
type Item struct {
	Name         string `validate:"required"`
	Code         string
	Dimensions   Dimensions
	UnitWeightKg float64 `validate:"gte=0"`
}

func (i Item) VolumeM3() float64 { return i.Dimensions.Volume() }

// A pickup kind names a field collection (e.g. a core sample) that travels
// inside a catalog box, adding weight to it.
type PickupKind struct {
	Name          string
	BaseItem      string
	ExtraWeightKg float64
}

// Read-only lookup of items and pickup kinds by name.
type Catalog struct {
	items map[string]Item
	kinds map[string]PickupKind
}

func NewCatalog(items []Item, kinds []PickupKind) *Catalog {
	c := &Catalog{
		items: make(map[string]Item, len(items)),
		kinds: make(map[string]PickupKind, len(kinds)),
	}
	for _, it := range items {
		c.items[strings.TrimSpace(it.Name)] = it
	}
	for _, k := range kinds {
		c.kinds[strings.TrimSpace(k.Name)] = k
	}
	return c
}

// Resolve returns the physical item behind name. Pickup kinds resolve to their
// base box with the extra weight added, keeping the kind's name.
func (c *Catalog) Resolve(name string) (Item, bool) {
	name = strings.TrimSpace(name)
	if it, ok := c.items[name]; ok {
		return it, true
	}

	k, ok := c.kinds[name]
	if !ok {
		return Item{}, false
	}
	base, ok := c.items[strings.TrimSpace(k.BaseItem)]
	if !ok {
		return Item{}, false
	}

	base.Name = name
	base.UnitWeightKg += k.ExtraWeightKg
	return base, true
}
