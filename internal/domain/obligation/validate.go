package obligation

import (
	"fmt"

	"github.com/go-playground/validator"
)

// Validator checks stored records against the Obligation invariants before
// they reach the matcher.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterStructValidation(targetMonthRule, Obligation{})
	return &Validator{validate: v}
}

// Check returns an error wrapping ErrMalformedObligation when o violates an invariant.
func (v *Validator) Check(o *Obligation) error {
	if o == nil {
		return fmt.Errorf("%w: nil record", ErrMalformedObligation)
	}
	if err := v.validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedObligation, o.ID, err)
	}
	return nil
}

// Partition splits records into valid ones and the errors for the rejected ones.
func (v *Validator) Partition(records []*Obligation) ([]*Obligation, []error) {
	valid := make([]*Obligation, 0, len(records))
	var rejected []error
	for _, o := range records {
		if err := v.Check(o); err != nil {
			rejected = append(rejected, err)
			continue
		}
		valid = append(valid, o)
	}
	return valid, rejected
}

// targetMonthRule requires a target month in 1..12 whenever the frequency is
// not monthly. Monthly obligations ignore the field.
func targetMonthRule(sl validator.StructLevel) {
	o := sl.Current().Interface().(Obligation)
	if o.Frequency == FrequencyMonthly {
		return
	}
	if o.TargetMonth < 1 || o.TargetMonth > 12 {
		sl.ReportError(o.TargetMonth, "TargetMonth", "TargetMonth", "target_month_for_frequency", string(o.Frequency))
	}
}
