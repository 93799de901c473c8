package delaytable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icrar/subtool/format"
)

// TestUpgradeMatchesS2 implements boundary scenario S2's delay-table
// half: frac_delay [1000, -1500] milli becomes [1.0, -1.5] samples,
// which is already the in-memory representation, so Upgrade only needs
// to flip the version tag.
func TestUpgradeMatchesS2(t *testing.T) {
	from := &Table{Version: format.SubVersionV1, Entries: []Entry{
		{RFInput: 1, WSDelay: 0, NumPointings: 1, FracDelay: []float64{1.0, -1.5}},
		{RFInput: 2, WSDelay: 0, NumPointings: 1, FracDelay: []float64{1.0, -1.5}},
	}}

	up := Upgrade(from)
	assert.Equal(t, format.SubVersionV2, up.Version)
	assert.Equal(t, []float64{1.0, -1.5}, up.Entries[0].FracDelay)
	assert.Equal(t, []float64{1.0, -1.5}, up.Entries[1].FracDelay)

	buf, err := up.Bytes()
	assert.NoError(t, err)
	assert.Equal(t, rowLength(format.SubVersionV2, 2), len(buf)/len(up.Entries))
}

func TestUpgradeIsNoOpForV2(t *testing.T) {
	tbl := v2Table(1)
	up := Upgrade(tbl)
	assert.Same(t, tbl, up)
}
