package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRel(t *testing.T) {
	tests := []struct {
		rel      Rel
		str      string
		doctrine string
		inverse  Rel
	}{
		{Unk, "Unknown", "", Unk},
		{O2O, "O2O", "OneToOne", O2O},
		{O2M, "O2M", "OneToMany", M2O},
		{M2O, "M2O", "ManyToOne", O2M},
		{M2M, "M2M", "ManyToMany", M2M},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.rel.String())
			assert.Equal(t, tt.doctrine, tt.rel.Doctrine())
			assert.Equal(t, tt.inverse, tt.rel.Inverse())

			text, err := tt.rel.MarshalText()
			require.NoError(t, err)
			var r Rel
			require.NoError(t, r.UnmarshalText(text))
			assert.Equal(t, tt.rel, r)
		})
	}

	var r Rel
	assert.Error(t, r.UnmarshalText([]byte("1:N")))
}
