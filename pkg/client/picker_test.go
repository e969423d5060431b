package client

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func samplePicker() *Picker {
	return NewPicker([]Part{
		{ID: 1, Name: "Ryzen 7", Category: "CPU", Price: decimal.RequireFromString("10.00")},
		{ID: 2, Name: "B650", Category: "Motherboard", Price: decimal.RequireFromString("189.50")},
		{ID: 3, Name: "RTX 4070", Category: "GPU", Price: decimal.RequireFromString("25.50")},
		{ID: 4, Name: "RX 7800", Category: "GPU", Price: decimal.RequireFromString("499.00")},
	})
}

func names(parts []Part) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.Name
	}
	return out
}

func TestPicker_Categories(t *testing.T) {
	assert.Equal(t, []string{"CPU", "Motherboard", "GPU"}, samplePicker().Categories())
	assert.Empty(t, NewPicker(nil).Categories())
}

func TestPicker_Filter(t *testing.T) {
	p := samplePicker()

	assert.Len(t, p.Filter(AllCategories, ""), 4)
	assert.Len(t, p.Filter(AllCategories, "   "), 4, "blank keyword matches all")
	assert.Equal(t, []string{"RTX 4070", "RX 7800"}, names(p.Filter("GPU", "")))
	assert.Equal(t, []string{"RTX 4070"}, names(p.Filter("GPU", " rTx ")))
	assert.Equal(t, []string{"B650"}, names(p.Filter(AllCategories, "board")), "keyword matches category")
	assert.Empty(t, p.Filter("CPU", "rtx"))
	assert.Empty(t, p.Filter("gpu", ""), "category match is exact")
}

func TestPicker_ToggleAndTotal(t *testing.T) {
	p := samplePicker()
	assert.True(t, p.Total().IsZero())

	assert.True(t, p.Toggle(3))
	assert.True(t, p.Toggle(1))
	assert.True(t, p.Toggle(99))
	assert.Equal(t, []string{"Ryzen 7", "RTX 4070"}, names(p.Selected()))
	assert.Equal(t, []int{3, 1, 99}, p.SelectedIDs())
	assert.True(t, p.Total().Equal(decimal.RequireFromString("35.50")), "total=%s", p.Total())

	assert.False(t, p.Toggle(3))
	assert.Equal(t, []int{1, 99}, p.SelectedIDs())
	assert.True(t, p.Total().Equal(decimal.RequireFromString("10")))
}
