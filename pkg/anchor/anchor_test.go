package anchor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindImage, KindPlane, KindFace} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("mesh")
	assert.Error(t, err)
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestCheckImage(t *testing.T) {
	assert.NoError(t, CheckImage(Anchor{ID: "a", Kind: KindImage}))

	err := CheckImage(Anchor{ID: "p", Kind: KindPlane})
	require.ErrorIs(t, err, ErrTypeMismatch)

	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, "p", mm.ID)
	assert.Equal(t, KindPlane, mm.Got)
	assert.Contains(t, err.Error(), "plane")
}

func TestConfig_Validate(t *testing.T) {
	ref := ReferenceImage{Name: "poster", PhysicalSize: Size{Width: 0.2, Height: 0.15}}

	cfg := SingleImageConfig(ref)
	assert.Equal(t, 1, cfg.MaxTracked)
	assert.NoError(t, cfg.Validate())

	assert.ErrorIs(t, Config{MaxTracked: 1}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{ReferenceImages: []ReferenceImage{ref}}.Validate(), ErrInvalidConfig)

	flat := SingleImageConfig(ReferenceImage{Name: "flat", PhysicalSize: Size{Width: 0.2}})
	assert.ErrorIs(t, flat.Validate(), ErrInvalidConfig)
}

func TestSize_String(t *testing.T) {
	assert.Equal(t, "0.2x0.15m", Size{Width: 0.2, Height: 0.15}.String())
}
