package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestASCII(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Café", "Cafe"},
		{"naïve résumé", "naive resume"},
		{"EIT Health’s core mission", "EIT Health's core mission"},
		{"“quoted” – dash", `"quoted" - dash`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ASCII(tt.in))
		})
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Elevator pitch", Clean("  Elevator\npitch \n"))
	assert.Equal(t, "", Clean(" \n\t "))
	assert.Equal(t, "a b", Clean("a  b"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Budget total", Label("Budget;total\n", ";"))
	assert.Equal(t, "a;b", Label("a;b", ""))
}

func TestKeyAndEqual(t *testing.T) {
	assert.Equal(t, "marketneed", Key("Market  Need"))
	assert.True(t, Equal("Thematic Areas Addressed", "thematic areas\naddressed "))
	assert.True(t, Equal("Knowledge triangle intregration", "Knowledgetriangleintregration"))
	assert.False(t, Equal("Market Need", "Market Needs"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Generated Proposal ID (auto)", "generated proposal id"))
	assert.False(t, Contains("Proposal", "Generated"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Diabetes mellitus", Capitalize("diabetes MELLITUS"))
	assert.Equal(t, "Élan", Capitalize("élan"))
	assert.Equal(t, "", Capitalize(""))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a", Join("", "a"))
	assert.Equal(t, "a", Join("a", ""))
	assert.Equal(t, "$2M more text", Join("$2M", "more text"))
}
