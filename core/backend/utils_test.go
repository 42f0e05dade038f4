// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.56, round2(10.555))
	assert.Equal(t, 10.55, round2(10.554))
	assert.Equal(t, 0.0, round2(0))
	assert.Equal(t, 1234.5, round2(1234.5))
	assert.Equal(t, -2.35, round2(-2.345))
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Jan 2026", monthLabel(2026, 1))
	assert.Equal(t, "Dec 2025", monthLabel(2025, 12))
	assert.Equal(t, "Jun 2024", monthLabel(2024, 6))
}
