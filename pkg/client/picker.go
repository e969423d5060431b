package client

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AllCategories selects every category in Filter.
const AllCategories = ""

// Picker holds a fetched parts list and the user's current selection. All
// operations are linear scans over the list. It is not safe for concurrent
// use.
type Picker struct {
	parts    []Part
	selected map[int]bool
	order    []int
}

func NewPicker(parts []Part) *Picker {
	return &Picker{parts: parts, selected: map[int]bool{}}
}

// Categories returns the distinct categories in first-seen order.
func (p *Picker) Categories() []string {
	seen := make(map[string]bool, len(p.parts))
	out := make([]string, 0, 8)
	for _, part := range p.parts {
		if seen[part.Category] {
			continue
		}
		seen[part.Category] = true
		out = append(out, part.Category)
	}
	return out
}

// Filter keeps parts in category (AllCategories for any) whose name or
// category contains keyword, case-insensitively. A blank keyword matches all.
func (p *Picker) Filter(category, keyword string) []Part {
	kw := strings.ToLower(strings.TrimSpace(keyword))

	out := make([]Part, 0, len(p.parts))
	for _, part := range p.parts {
		if category != AllCategories && part.Category != category {
			continue
		}
		if kw != "" &&
			!strings.Contains(strings.ToLower(part.Name), kw) &&
			!strings.Contains(strings.ToLower(part.Category), kw) {
			continue
		}
		out = append(out, part)
	}
	return out
}

// Toggle flips the selection of id and reports whether it is now selected.
func (p *Picker) Toggle(id int) bool {
	if p.selected[id] {
		delete(p.selected, id)
		for i, v := range p.order {
			if v == id {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
		return false
	}

	p.selected[id] = true
	p.order = append(p.order, id)
	return true
}

// Selected returns the selected parts in list order. Ids that are not in the
// list are kept selected but not returned.
func (p *Picker) Selected() []Part {
	out := make([]Part, 0, len(p.selected))
	for _, part := range p.parts {
		if p.selected[part.ID] {
			out = append(out, part)
		}
	}
	return out
}

// SelectedIDs returns the selection in toggle order, suitable for
// Client.CalculateBuild.
func (p *Picker) SelectedIDs() []int {
	return append([]int(nil), p.order...)
}

func (p *Picker) Total() decimal.Decimal {
	total := decimal.Zero
	for _, part := range p.Selected() {
		total = total.Add(part.Price)
	}
	return total
}
