package validation

import (
	"fmt"
	"os"
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "validation errors: " + strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator accumulates named field errors instead of failing on the first one.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// Errors returns all validation errors
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
}

// Positive validates that a number is positive
func (v *Validator) Positive(field string, value float64) {
	if value <= 0 {
		v.AddError(field, "must be positive")
	}
}

// NonNegative validates that a number is non-negative
func (v *Validator) NonNegative(field string, value float64) {
	if value < 0 {
		v.AddError(field, "must be non-negative")
	}
}

// Range validates that a number lies within [min, max]
func (v *Validator) Range(field string, value, min, max float64) {
	if value < min || value > max {
		v.AddError(field, fmt.Sprintf("must be within [%v, %v]", min, max))
	}
}

// OneOf validates that a value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// FileExists validates that os.Stat succeeds on a non-empty path; it does
// not check that the path is a regular file or that it can be read
func (v *Validator) FileExists(field, path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		v.AddError(field, fmt.Sprintf("does not exist or is not readable: %v", err))
	}
}

// knownStrategyFamilies is the closed enumeration accepted by --strategies.
var knownStrategyFamilies = []string{
	"OTT", "TOTT", "OTT_CHANNEL", "RISOTTO", "SOTT",
	"HOTT-LOTT", "ROTT", "FT", "RTR", "MOTT", "BOOTS",
}

// OptimizerConfigValidator validates the assembled CLI/config surface of a
// grid-search run before the coordinator starts.
type OptimizerConfigValidator struct {
	*Validator
}

// NewOptimizerConfigValidator creates a validator for the optimizer configuration.
func NewOptimizerConfigValidator() *OptimizerConfigValidator {
	return &OptimizerConfigValidator{Validator: NewValidator()}
}

// ValidateThreads checks that the worker pool size is positive.
func (v *OptimizerConfigValidator) ValidateThreads(threads int) {
	if threads <= 0 {
		v.AddError("threads", "must be positive")
	}
}

// ValidateMinTrades checks that the trade-count filter is non-negative.
func (v *OptimizerConfigValidator) ValidateMinTrades(minTrades int) {
	if minTrades < 0 {
		v.AddError("min_trades", "must be non-negative")
	}
}

// ValidateMinWinRate checks that the win-rate filter lies within [0,100].
func (v *OptimizerConfigValidator) ValidateMinWinRate(minWinRate float64) {
	v.Range("min_winrate", minWinRate, 0, 100)
}

// ValidateStrategies checks that every requested family name is recognized.
func (v *OptimizerConfigValidator) ValidateStrategies(strategies []string) {
	if len(strategies) == 0 {
		v.AddError("strategies", "at least one strategy must be selected")
		return
	}
	for _, s := range strategies {
		v.OneOf("strategies", s, knownStrategyFamilies)
	}
}

// ValidatePercentGrid checks that every SL/TP grid entry is positive.
func (v *OptimizerConfigValidator) ValidatePercentGrid(field string, grid []float64) {
	for _, p := range grid {
		if p <= 0 {
			v.AddError(field, fmt.Sprintf("entry %v must be positive", p))
		}
	}
}

// ValidateConfigFile checks that an explicitly given config file exists.
func (v *OptimizerConfigValidator) ValidateConfigFile(path string) {
	v.FileExists("config", path)
}

// CSVRowError names the offending line when CSV validation aborts a load.
type CSVRowError struct {
	Line    int
	Message string
}

func (e *CSVRowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}
