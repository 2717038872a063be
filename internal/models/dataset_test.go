package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEntityDataset(t *testing.T) {
	data := []byte(`[
		{"sno": 1, "mine_name": "Jharia", "fuel_emission": 10, "electricity_emission": 5, "methane_emission": 2, "total_emission": 15},
		{"id": 2, "name": "Gevra", "fuel_emission": 1.5, "electricity_emission": 0.5, "methane_emission": 0}
	]`)

	records, err := DecodeEntityDataset(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first, err := records[0].ToEntity(0)
	require.NoError(t, err)
	assert.Equal(t, "Jharia", first.Name)
	assert.Equal(t, int64(1), first.ID)

	second, err := records[1].ToEntity(1)
	require.NoError(t, err)
	assert.Equal(t, "Gevra", second.Name)
	assert.Equal(t, 0.0, second.TotalEmission)
}

func TestDecodeEntityDataset_Invalid(t *testing.T) {
	_, err := DecodeEntityDataset([]byte(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestDecodeYearDataset(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     bool
		checkValues func(*testing.T, RawYearDataset)
	}{
		{
			name: "keeps document order for numeric-looking labels",
			input: `{
				"2021": {"fuel emission": 3, "electricity emission": 1, "total emission": 4, "methane emission (m3)": 9},
				"2019": {"fuel emission": 1, "electricity emission": 1, "total emission": 2, "methane emission (m3)": 7},
				"2020": {"fuel emission": 2, "electricity emission": 1, "total emission": 3, "methane emission (m3)": 8}
			}`,
			checkValues: func(t *testing.T, ds RawYearDataset) {
				require.Len(t, ds, 3)
				assert.Equal(t, "2021", ds[0].Label)
				assert.Equal(t, "2019", ds[1].Label)
				assert.Equal(t, "2020", ds[2].Label)
				assert.Equal(t, 9.0, ds[0].Fields["methane emission (m3)"])
			},
		},
		{
			name: "duplicate label keeps first position and last value",
			input: `{
				"2019": {"total emission": 1},
				"2020": {"total emission": 2},
				"2019": {"total emission": 5}
			}`,
			checkValues: func(t *testing.T, ds RawYearDataset) {
				require.Len(t, ds, 2)
				assert.Equal(t, "2019", ds[0].Label)
				assert.Equal(t, 5.0, ds[0].Fields["total emission"])
				assert.Equal(t, "2020", ds[1].Label)
			},
		},
		{
			name:  "empty object",
			input: `{}`,
			checkValues: func(t *testing.T, ds RawYearDataset) {
				assert.Empty(t, ds)
			},
		},
		{
			name:    "array is rejected",
			input:   `[1, 2]`,
			wantErr: true,
		},
		{
			name:    "non-numeric field",
			input:   `{"2019": {"total emission": "lots"}}`,
			wantErr: true,
		},
		{
			name:    "truncated document",
			input:   `{"2019": {"total emission": 1}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := DecodeYearDataset([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.checkValues != nil {
				tt.checkValues(t, ds)
			}
		})
	}
}
