package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/cliniprov/internal/model"
)

func TestExtractMeasurements_EjectionFraction(t *testing.T) {
	e := NewValueExtractor()

	for _, n := range []int{5, 25, 45, 60, 99} {
		t.Run(fmt.Sprintf("LVEF of %d%%", n), func(t *testing.T) {
			values := e.ExtractMeasurements(fmt.Sprintf("Echo showed LVEF of %d%% today.", n))
			require.Len(t, values, 1)
			assert.Equal(t, model.ValueMeasurement, values[0].Type)
			assert.Equal(t, "LVEF", values[0].Name)
			assert.Equal(t, fmt.Sprint(n), values[0].Value)
			assert.Equal(t, "%", values[0].Unit)
		})
	}

	values := e.ExtractMeasurements("rvef 40%")
	require.Len(t, values, 1)
	assert.Equal(t, "RVEF", values[0].Name)
}

func TestExtractMeasurements_Patterns(t *testing.T) {
	e := NewValueExtractor()

	tests := []struct {
		text  string
		name  string
		value string
		unit  string
	}{
		{"BP 120/80 recorded.", "Blood Pressure", "120/80", "mmHg"},
		{"Blood pressure was 145 / 90 mmHg", "Blood Pressure", "145/90", "mmHg"},
		{"BP 120/80mmHg today.", "Blood Pressure", "120/80", "mmHg"},
		{"BP: 118/76 mmHg", "Blood Pressure", "118/76", "mmHg"},
		{"HR 72 bpm", "Heart Rate", "72", "bpm"},
		{"heart rate of 64", "Heart Rate", "64", "bpm"},
		{"HR 88bpm at rest", "Heart Rate", "88", "bpm"},
		{"There is a 70% stenosis of the LAD", "Stenosis", "70", "%"},
		{"mean gradient of 40 mmHg", "Mean Gradient", "40", "mmHg"},
		{"Peak gradient 64.5 mmHg", "Peak Gradient", "64.5", "mmHg"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			values := e.ExtractMeasurements(tt.text)
			require.Len(t, values, 1)
			assert.Equal(t, tt.name, values[0].Name)
			assert.Equal(t, tt.value, values[0].Value)
			assert.Equal(t, tt.unit, values[0].Unit)
		})
	}
}

func TestExtractMeasurements_Doses(t *testing.T) {
	e := NewValueExtractor()

	values := e.ExtractMeasurements("Aspirin 100 mg and clopidogrel 75 mg.")
	require.Len(t, values, 2)

	assert.Equal(t, model.ValueMedication, values[0].Type)
	assert.Equal(t, "Aspirin", values[0].Name)
	assert.Equal(t, "100", values[0].Value)
	assert.Equal(t, "mg", values[0].Unit)
	assert.Equal(t, 0, values[0].Start)

	assert.Equal(t, "Clopidogrel", values[1].Name)
	assert.Equal(t, "75", values[1].Value)
	assert.Equal(t, "mg", values[1].Unit)
	assert.Less(t, values[0].Start, values[1].Start)

	values = e.ExtractMeasurements("Insulin glargine 20 UNITS nocte, frusemide 40mg")
	require.Len(t, values, 2)
	assert.Equal(t, "Glargine", values[0].Name)
	assert.Equal(t, "units", values[0].Unit)
	assert.Equal(t, "Frusemide", values[1].Name)
	assert.Equal(t, "40", values[1].Value)
}

func TestExtractMeasurements_RejectsGenericWords(t *testing.T) {
	e := NewValueExtractor()
	for _, text := range []string{"total 40 mg", "daily dose of 40 mg", "increased 10 mg"} {
		assert.Empty(t, e.ExtractMeasurements(text), text)
	}
}

func TestExtractMeasurements_NoMatch(t *testing.T) {
	values := NewValueExtractor().ExtractMeasurements("The patient is well and was discharged home.")
	assert.NotNil(t, values)
	assert.Empty(t, values)
}

func TestExtractMeasurements_OffsetsPointAtMatch(t *testing.T) {
	text := "On review BP 130/85 and LVEF 55%."
	values := NewValueExtractor().ExtractMeasurements(text)
	require.Len(t, values, 2)
	assert.Equal(t, "BP 130/85", text[values[0].Start:values[0].End])
	assert.Equal(t, "LVEF 55%", text[values[1].Start:values[1].End])
}
