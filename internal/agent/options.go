package agent

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/aleister1102/firefoxversions/internal/snapshot"
	"github.com/go-playground/validator/v10"
)

// Option keys accepted by the agent.
const (
	OptionExpectedReceivePeriod = "expected_receive_period_in_days"
	OptionType                  = "type"
	OptionChangesOnly           = "changes_only"
	OptionDebug                 = "debug"
)

// ComparisonField selects the upstream key whose change triggers an event
// when changes_only is set.
type ComparisonField int

const (
	CompareLatest ComparisonField = iota
	CompareLatestESR
	CompareLatestNightly
)

var comparisonFieldNames = map[ComparisonField]string{
	CompareLatest:        "latest",
	CompareLatestESR:     "latest_esr",
	CompareLatestNightly: "latest_nightly",
}

var comparisonFieldKeys = map[ComparisonField]string{
	CompareLatest:        snapshot.KeyLatestFirefoxVersion,
	CompareLatestESR:     snapshot.KeyFirefoxESR,
	CompareLatestNightly: snapshot.KeyFirefoxNightly,
}

// ComparisonFieldValues lists the accepted values of the type option.
func ComparisonFieldValues() []string {
	return []string{"latest", "latest_esr", "latest_nightly"}
}

// ParseComparisonField maps a type option value to its ComparisonField.
// An empty value selects CompareLatest.
func ParseComparisonField(value string) (ComparisonField, error) {
	switch value {
	case "", "latest":
		return CompareLatest, nil
	case "latest_esr":
		return CompareLatestESR, nil
	case "latest_nightly":
		return CompareLatestNightly, nil
	default:
		return CompareLatest, common.NewConfigurationError("options", OptionType, fmt.Sprintf("unknown comparison field %q", value))
	}
}

func (f ComparisonField) String() string {
	if name, ok := comparisonFieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("ComparisonField(%d)", int(f))
}

// DocumentKey returns the upstream document key compared for this field.
func (f ComparisonField) DocumentKey() string {
	return comparisonFieldKeys[f]
}

// Options is the validated, typed agent configuration.
type Options struct {
	ExpectedReceivePeriodInDays int
	Type                        ComparisonField
	ChangesOnly                 bool
	Debug                       bool
}

// DefaultOptions returns the options a new agent starts with.
func DefaultOptions() map[string]any {
	return map[string]any{
		OptionDebug:                 "false",
		OptionExpectedReceivePeriod: "2",
		OptionType:                  "latest",
		OptionChangesOnly:           "true",
	}
}

// Messages reported for invalid options, keyed by option name.
var validationMessages = map[string]string{
	OptionType:                  "type has invalid value: should be 'latest' 'latest_esr' 'latest_nightly'",
	OptionChangesOnly:           "if provided, changes_only must be true or false",
	OptionDebug:                 "if provided, debug must be true or false",
	OptionExpectedReceivePeriod: "Please provide 'expected_receive_period_in_days' to indicate how many days can pass before this Agent is considered to be not working",
}

// rawOptions is the validation view over loosely typed options. Pointer
// fields distinguish a missing key from a provided one.
type rawOptions struct {
	ExpectedReceivePeriodInDays *string `json:"expected_receive_period_in_days" validate:"required,positiveint"`
	Type                        string  `json:"type" validate:"omitempty,oneof=latest latest_esr latest_nightly"`
	ChangesOnly                 *string `json:"changes_only" validate:"omitnil,boolish"`
	Debug                       *string `json:"debug" validate:"omitnil,boolish"`
}

var optionsValidator = newOptionsValidator()

func newOptionsValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("boolish", func(fl validator.FieldLevel) bool {
		_, ok := parseBoolish(fl.Field().String())
		return ok
	})

	_ = validate.RegisterValidation("positiveint", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		return err == nil && n > 0
	})

	return validate
}

// ValidateOptions checks raw options and returns one ConfigurationError per
// invalid option. A nil result means the options are usable.
func ValidateOptions(raw map[string]any) []error {
	view := toRawOptions(raw)

	err := optionsValidator.Struct(view)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []error{common.WrapError(err, "options validation error")}
	}

	var collector common.ErrorCollector
	for _, fe := range validationErrs {
		msg, ok := validationMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("rule '%s' failed", fe.Tag())
		}
		collector.Add(common.NewConfigurationError("options", fe.Field(), msg))
	}
	return collector.Errors()
}

// ParseOptions validates raw options and converts them to Options.
func ParseOptions(raw map[string]any) (Options, error) {
	if errs := ValidateOptions(raw); len(errs) > 0 {
		return Options{}, common.CombineErrors(errs)
	}

	view := toRawOptions(raw)

	period, _ := strconv.Atoi(strings.TrimSpace(*view.ExpectedReceivePeriodInDays))
	field, err := ParseComparisonField(view.Type)
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		ExpectedReceivePeriodInDays: period,
		Type:                        field,
	}
	if view.ChangesOnly != nil {
		opts.ChangesOnly, _ = parseBoolish(*view.ChangesOnly)
	}
	if view.Debug != nil {
		opts.Debug, _ = parseBoolish(*view.Debug)
	}
	return opts, nil
}

// ToMap renders typed options back into their raw form.
func (o Options) ToMap() map[string]any {
	return map[string]any{
		OptionExpectedReceivePeriod: strconv.Itoa(o.ExpectedReceivePeriodInDays),
		OptionType:                  o.Type.String(),
		OptionChangesOnly:           strconv.FormatBool(o.ChangesOnly),
		OptionDebug:                 strconv.FormatBool(o.Debug),
	}
}

func toRawOptions(raw map[string]any) rawOptions {
	var view rawOptions
	if v, ok := raw[OptionExpectedReceivePeriod]; ok {
		s := optionString(v)
		view.ExpectedReceivePeriodInDays = &s
	}
	if v, ok := raw[OptionType]; ok {
		view.Type = optionString(v)
	}
	if v, ok := raw[OptionChangesOnly]; ok {
		s := optionString(v)
		view.ChangesOnly = &s
	}
	if v, ok := raw[OptionDebug]; ok {
		s := optionString(v)
		view.Debug = &s
	}
	return view
}

// optionString stringifies a decoded option value. Config files decode
// numbers as int or float64 depending on the format.
func optionString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func parseBoolish(s string) (bool, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// FieldType describes how a host renders an option input.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
)

// SchemaField describes one configurable option.
type SchemaField struct {
	Name    string    `json:"name"`
	Type    FieldType `json:"type"`
	Values  []string  `json:"values,omitempty"`
	Default string    `json:"default,omitempty"`
}

// Schema returns the configuration form description of the agent.
func Schema() []SchemaField {
	defaults := DefaultOptions()
	return []SchemaField{
		{Name: OptionExpectedReceivePeriod, Type: FieldTypeString, Default: optionString(defaults[OptionExpectedReceivePeriod])},
		{Name: OptionChangesOnly, Type: FieldTypeBoolean, Default: optionString(defaults[OptionChangesOnly])},
		{Name: OptionDebug, Type: FieldTypeBoolean, Default: optionString(defaults[OptionDebug])},
		{Name: OptionType, Type: FieldTypeArray, Values: ComparisonFieldValues(), Default: optionString(defaults[OptionType])},
	}
}
