package entities

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restOf(v int) *int {
	return &v
}

func TestEncodeSets(t *testing.T) {
	t.Run("writes value weight and rest", func(t *testing.T) {
		out, err := EncodeSets(SetList{{Value: 10, Weight: 2.5, Rest: restOf(90)}, {Value: 8, Weight: -10}})
		require.NoError(t, err)
		assert.Equal(t, `[{"value":10,"weight":2.5,"rest":90},{"value":8,"weight":-10}]`, out)
	})

	t.Run("drops zero rest", func(t *testing.T) {
		out, err := EncodeSets(SetList{{Value: 5, Rest: restOf(0)}})
		require.NoError(t, err)
		assert.Equal(t, `[{"value":5,"weight":0}]`, out)
	})

	t.Run("nil list encodes as empty array", func(t *testing.T) {
		out, err := EncodeSets(nil)
		require.NoError(t, err)
		assert.Equal(t, `[]`, out)
	})
}

func TestDecodeSets(t *testing.T) {
	t.Run("zero rest decodes as absent", func(t *testing.T) {
		sets, err := DecodeSets(`[{"value":10,"weight":0,"rest":0},{"value":9,"weight":1.5,"rest":60}]`)
		require.NoError(t, err)
		require.Len(t, sets, 2)
		assert.Nil(t, sets[0].Rest)
		require.NotNil(t, sets[1].Rest)
		assert.Equal(t, 60, *sets[1].Rest)
		assert.Equal(t, 1.5, sets[1].Weight)
	})

	t.Run("empty input", func(t *testing.T) {
		sets, err := DecodeSets("")
		require.NoError(t, err)
		assert.Empty(t, sets)
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := DecodeSets(`{"value":`)
		assert.Error(t, err)
	})
}

func TestSetList_RoundTrip(t *testing.T) {
	faker := gofakeit.New(42)

	for i := 0; i < 50; i++ {
		count := faker.Number(1, 8)
		sets := make(SetList, count)
		for j := range sets {
			sets[j] = ExerciseSet{
				Value:  faker.Number(0, 200),
				Weight: float64(faker.Number(-400, 400)) / 4,
			}
			if faker.Bool() {
				sets[j].Rest = restOf(faker.Number(1, 600))
			}
		}

		encoded, err := EncodeSets(sets)
		require.NoError(t, err)
		decoded, err := DecodeSets(encoded)
		require.NoError(t, err)
		assert.Equal(t, sets, decoded)

		reencoded, err := EncodeSets(decoded)
		require.NoError(t, err)
		assert.Equal(t, encoded, reencoded)
	}
}

func TestSetList_Scan(t *testing.T) {
	var sets SetList
	require.NoError(t, sets.Scan([]byte(`[{"value":3,"weight":0,"rest":0}]`)))
	require.Len(t, sets, 1)
	assert.Nil(t, sets[0].Rest)

	require.NoError(t, sets.Scan(nil))
	assert.Empty(t, sets)

	assert.Error(t, sets.Scan(42))
}

func TestUniformSets(t *testing.T) {
	sets := UniformSets(4, 10, 0, 90)
	require.Len(t, sets, 4)
	for i, s := range sets[:3] {
		assert.Equal(t, 10, s.Value, "set %d", i)
		require.NotNil(t, s.Rest)
		assert.Equal(t, 90, *s.Rest)
	}
	assert.Nil(t, sets[3].Rest)
}
