// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/passage/pkg/convert"
)

func TestToBool(t *testing.T) {
	for _, truthy := range []string{"true", "TRUE", "1", "yes", " on "} {
		assert.True(t, convert.ToBool(truthy), truthy)
	}
	for _, falsy := range []string{"", "false", "0", "no", "maybe"} {
		assert.False(t, convert.ToBool(falsy), falsy)
	}
}

func TestToIntD(t *testing.T) {
	assert.Equal(t, 5, convert.ToIntD("5", 1))
	assert.Equal(t, 1, convert.ToIntD("", 1))
	assert.Equal(t, 1, convert.ToIntD("five", 1))
}
