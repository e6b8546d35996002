package validation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Required(t *testing.T) {
	v := NewValidator()

	v.Required("field", "")
	assert.True(t, v.HasErrors())
	assert.Equal(t, "field", v.Errors()[0].Field)
	assert.Contains(t, v.Errors()[0].Message, "required")

	v = NewValidator()
	v.Required("field", "  ")
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.Required("field", "value")
	assert.False(t, v.HasErrors())
}

func TestValidator_Positive(t *testing.T) {
	v := NewValidator()
	v.Positive("field", 0)
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.Positive("field", 0.1)
	assert.False(t, v.HasErrors())
}

func TestValidator_NonNegative(t *testing.T) {
	v := NewValidator()
	v.NonNegative("field", -1)
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.NonNegative("field", 0)
	assert.False(t, v.HasErrors())
}

func TestValidator_Range(t *testing.T) {
	v := NewValidator()
	v.Range("field", 101, 0, 100)
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.Range("field", 100, 0, 100)
	assert.False(t, v.HasErrors())
}

func TestValidator_OneOf(t *testing.T) {
	allowed := []string{"a", "b"}

	v := NewValidator()
	v.OneOf("field", "c", allowed)
	assert.True(t, v.HasErrors())
	assert.Contains(t, v.Errors()[0].Message, "a, b")

	v = NewValidator()
	v.OneOf("field", "b", allowed)
	assert.False(t, v.HasErrors())
}

func TestValidator_FileExists(t *testing.T) {
	v := NewValidator()
	v.FileExists("config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, v.HasErrors())

	// Empty path means the option was not supplied.
	v = NewValidator()
	v.FileExists("config", "")
	assert.False(t, v.HasErrors())
}

func TestValidator_AccumulatesAllErrors(t *testing.T) {
	v := NewValidator()
	v.Required("a", "")
	v.Positive("b", -1)
	v.Range("c", 200, 0, 100)

	require.Len(t, v.Errors(), 3)
	msg := v.Errors().Error()
	assert.Contains(t, msg, "a:")
	assert.Contains(t, msg, "b:")
	assert.Contains(t, msg, "c:")
}

func TestValidationErrors_SingleErrorMessage(t *testing.T) {
	errs := ValidationErrors{{Field: "x", Message: "bad"}}
	assert.Equal(t, "x: bad", errs.Error())
	assert.Equal(t, "", ValidationErrors{}.Error())
}

func TestOptimizerConfigValidator_AcceptsValidConfig(t *testing.T) {
	v := NewOptimizerConfigValidator()
	v.ValidateThreads(8)
	v.ValidateMinTrades(5)
	v.ValidateMinWinRate(55)
	v.ValidateStrategies([]string{"OTT", "HOTT-LOTT", "RTR"})
	v.ValidatePercentGrid("sl_grid", []float64{0.5, 1.0})
	v.ValidatePercentGrid("tp_grid", []float64{0.4})

	assert.False(t, v.HasErrors())
}

func TestOptimizerConfigValidator_RejectsBadValues(t *testing.T) {
	v := NewOptimizerConfigValidator()
	v.ValidateThreads(0)
	v.ValidateMinTrades(-1)
	v.ValidateMinWinRate(120)
	v.ValidateStrategies([]string{"OTT", "NOPE"})
	v.ValidatePercentGrid("sl_grid", []float64{0.5, -1})

	assert.Len(t, v.Errors(), 5)
}

func TestOptimizerConfigValidator_EmptyStrategies(t *testing.T) {
	v := NewOptimizerConfigValidator()
	v.ValidateStrategies(nil)
	assert.True(t, v.HasErrors())
}

func TestCSVRowError_NamesLine(t *testing.T) {
	err := &CSVRowError{Line: 7, Message: "invalid close value"}
	assert.Equal(t, "line 7: invalid close value", err.Error())
}
