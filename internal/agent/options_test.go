package agent

import (
	"testing"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/aleister1102/firefoxversions/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparisonField(t *testing.T) {
	tests := []struct {
		value string
		field ComparisonField
		key   string
	}{
		{value: "latest", field: CompareLatest, key: snapshot.KeyLatestFirefoxVersion},
		{value: "latest_esr", field: CompareLatestESR, key: snapshot.KeyFirefoxESR},
		{value: "latest_nightly", field: CompareLatestNightly, key: snapshot.KeyFirefoxNightly},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			field, err := ParseComparisonField(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.field, field)
			assert.Equal(t, tt.value, field.String())
			assert.Equal(t, tt.key, field.DocumentKey())
		})
	}

	field, err := ParseComparisonField("")
	require.NoError(t, err)
	assert.Equal(t, CompareLatest, field)

	_, err = ParseComparisonField("latest_beta")
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)

	assert.Equal(t, "ComparisonField(9)", ComparisonField(9).String())
	assert.Empty(t, ComparisonField(9).DocumentKey())
}

func TestValidateOptions_Defaults(t *testing.T) {
	assert.Empty(t, ValidateOptions(DefaultOptions()))
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name           string
		override       map[string]any
		remove         []string
		expectedFields []string
	}{
		{name: "invalid type", override: map[string]any{"type": "latest_beta"}, expectedFields: []string{"type"}},
		{name: "empty type is allowed", override: map[string]any{"type": ""}},
		{name: "missing type is allowed", remove: []string{"type"}},
		{name: "bool values", override: map[string]any{"changes_only": false, "debug": true}},
		{name: "string bools", override: map[string]any{"changes_only": "false", "debug": "true"}},
		{name: "changes_only not a bool", override: map[string]any{"changes_only": "yes"}, expectedFields: []string{"changes_only"}},
		{name: "debug provided empty", override: map[string]any{"debug": ""}, expectedFields: []string{"debug"}},
		{name: "debug null", override: map[string]any{"debug": nil}, expectedFields: []string{"debug"}},
		{name: "missing bools are allowed", remove: []string{"changes_only", "debug"}},
		{name: "integer period", override: map[string]any{"expected_receive_period_in_days": 5}},
		{name: "float period", override: map[string]any{"expected_receive_period_in_days": float64(3)}},
		{name: "padded period", override: map[string]any{"expected_receive_period_in_days": " 7 "}},
		{name: "missing period", remove: []string{"expected_receive_period_in_days"}, expectedFields: []string{"expected_receive_period_in_days"}},
		{name: "empty period", override: map[string]any{"expected_receive_period_in_days": ""}, expectedFields: []string{"expected_receive_period_in_days"}},
		{name: "zero period", override: map[string]any{"expected_receive_period_in_days": "0"}, expectedFields: []string{"expected_receive_period_in_days"}},
		{name: "negative period", override: map[string]any{"expected_receive_period_in_days": -1}, expectedFields: []string{"expected_receive_period_in_days"}},
		{name: "word period", override: map[string]any{"expected_receive_period_in_days": "two"}, expectedFields: []string{"expected_receive_period_in_days"}},
		{
			name:           "everything wrong",
			override:       map[string]any{"type": "beta", "changes_only": "maybe", "debug": "1", "expected_receive_period_in_days": "x"},
			expectedFields: []string{"expected_receive_period_in_days", "type", "changes_only", "debug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := DefaultOptions()
			for k, v := range tt.override {
				raw[k] = v
			}
			for _, k := range tt.remove {
				delete(raw, k)
			}

			errs := ValidateOptions(raw)
			require.Len(t, errs, len(tt.expectedFields))

			for i, err := range errs {
				var cfgErr *common.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, "options", cfgErr.Section)
				assert.Equal(t, tt.expectedFields[i], cfgErr.Field)
				assert.Equal(t, validationMessages[tt.expectedFields[i]], cfgErr.Reason)
			}
		})
	}
}

func TestValidateOptions_InvalidTypeReportsExactlyOneError(t *testing.T) {
	raw := DefaultOptions()
	raw["type"] = "latest_beta"

	errs := ValidateOptions(raw)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "type has invalid value: should be 'latest' 'latest_esr' 'latest_nightly'")

	_, err := ParseOptions(raw)
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Options{
		ExpectedReceivePeriodInDays: 2,
		Type:                        CompareLatest,
		ChangesOnly:                 true,
		Debug:                       false,
	}, opts)

	opts, err = ParseOptions(map[string]any{
		"expected_receive_period_in_days": 7,
		"type":                            "latest_nightly",
		"changes_only":                    false,
		"debug":                           "true",
	})
	require.NoError(t, err)
	assert.Equal(t, Options{
		ExpectedReceivePeriodInDays: 7,
		Type:                        CompareLatestNightly,
		ChangesOnly:                 false,
		Debug:                       true,
	}, opts)

	opts, err = ParseOptions(map[string]any{"expected_receive_period_in_days": "1"})
	require.NoError(t, err)
	assert.False(t, opts.ChangesOnly)
	assert.Equal(t, CompareLatest, opts.Type)
}

func TestOptions_ToMap(t *testing.T) {
	opts := Options{ExpectedReceivePeriodInDays: 3, Type: CompareLatestESR, ChangesOnly: true}

	raw := opts.ToMap()
	assert.Equal(t, map[string]any{
		"expected_receive_period_in_days": "3",
		"type":                            "latest_esr",
		"changes_only":                    "true",
		"debug":                           "false",
	}, raw)

	parsed, err := ParseOptions(raw)
	require.NoError(t, err)
	assert.Equal(t, opts, parsed)
}

func TestSchema(t *testing.T) {
	schema := Schema()
	require.Len(t, schema, 4)

	byName := map[string]SchemaField{}
	for _, f := range schema {
		byName[f.Name] = f
	}

	assert.Equal(t, FieldTypeString, byName["expected_receive_period_in_days"].Type)
	assert.Equal(t, FieldTypeBoolean, byName["changes_only"].Type)
	assert.Equal(t, FieldTypeBoolean, byName["debug"].Type)
	assert.Equal(t, FieldTypeArray, byName["type"].Type)
	assert.Equal(t, []string{"latest", "latest_esr", "latest_nightly"}, byName["type"].Values)
	assert.Equal(t, "2", byName["expected_receive_period_in_days"].Default)
}
