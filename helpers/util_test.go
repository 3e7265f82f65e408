package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSplitPart(t *testing.T) {
	part, err := GetSplitPart("/Wooden-Clock/dp/B0ABC123/ref=sr_1_1", "/dp/", 1)
	assert.NoError(t, err)
	assert.Equal(t, "B0ABC123/ref=sr_1_1", part)

	_, err = GetSplitPart("/no-product-here", "/dp/", 1)
	assert.Error(t, err)
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "wall clock for living room", CollapseSpaces("  wall   clock\tfor living room "))
	assert.Equal(t, "", CollapseSpaces("   "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "₹₹", Truncate("₹₹₹", 2))
}
