package record

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhukovaskychina/xmysql-server/internal/page"
)

func newPageWithSentinels() []byte {
	b := make([]byte, page.Size)
	copy(b[InfimumOrigin-5:], InfimumSupremumTemplate)
	return b
}

func TestInfimumSupremumTemplateLayout(t *testing.T) {
	b := newPageWithSentinels()

	assert.EqualValues(t, StatusInfimum, Status(b, InfimumOrigin))
	assert.EqualValues(t, StatusSupremum, Status(b, SupremumOrigin))
	assert.EqualValues(t, 0, HeapNo(b, InfimumOrigin))
	assert.EqualValues(t, 1, HeapNo(b, SupremumOrigin))
	assert.EqualValues(t, 1, NOwned(b, InfimumOrigin))
	assert.EqualValues(t, 1, NOwned(b, SupremumOrigin))

	assert.Equal(t, SupremumOrigin, NextOrigin(b, InfimumOrigin))
	assert.Equal(t, 0, NextOrigin(b, SupremumOrigin))
}

func TestHeapNoAndOwnedRoundTrip(t *testing.T) {
	b := newPageWithSentinels()
	SetHeapNoAndOwned(b, InfimumOrigin, 5, 3)

	assert.EqualValues(t, 5, HeapNo(b, InfimumOrigin))
	assert.EqualValues(t, 3, NOwned(b, InfimumOrigin))

	SetNOwned(b, InfimumOrigin, 7)
	assert.EqualValues(t, 5, HeapNo(b, InfimumOrigin))
	assert.EqualValues(t, 7, NOwned(b, InfimumOrigin))
}

func TestNextOffsetSignedRoundTrip(t *testing.T) {
	b := newPageWithSentinels()
	SetNextOffset(b, InfimumOrigin, -10)
	assert.EqualValues(t, -10, NextOffset(b, InfimumOrigin))
	assert.Equal(t, InfimumOrigin-10, NextOrigin(b, InfimumOrigin))

	SetNextOffset(b, InfimumOrigin, 0)
	assert.Equal(t, 0, NextOrigin(b, InfimumOrigin))
}

func TestInfoBitsAndStatusPreserveEachOther(t *testing.T) {
	b := newPageWithSentinels()
	SetStatus(b, InfimumOrigin, StatusOrdinary)
	SetInfoBits(b, InfimumOrigin, InfoMinRecFlag)

	assert.EqualValues(t, StatusOrdinary, Status(b, InfimumOrigin))
	assert.EqualValues(t, InfoMinRecFlag, InfoBits(b, InfimumOrigin))

	SetInfoBits(b, InfimumOrigin, InfoDeletedFlag)
	assert.EqualValues(t, StatusOrdinary, Status(b, InfimumOrigin))
	assert.EqualValues(t, InfoDeletedFlag, InfoBits(b, InfimumOrigin))
}

func TestSetDeleted(t *testing.T) {
	b := newPageWithSentinels()
	assert.False(t, Deleted(b, InfimumOrigin))

	SetDeleted(b, InfimumOrigin, true)
	assert.True(t, Deleted(b, InfimumOrigin))

	SetDeleted(b, InfimumOrigin, false)
	assert.False(t, Deleted(b, InfimumOrigin))
}

func TestSetMinRecMark(t *testing.T) {
	b := newPageWithSentinels()
	SetMinRecMark(b, InfimumOrigin)
	assert.EqualValues(t, InfoMinRecFlag, InfoBits(b, InfimumOrigin)&InfoMinRecFlag)
}
