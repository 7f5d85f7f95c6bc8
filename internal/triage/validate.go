package triage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/one2ten/stetho-agent/internal/reference"
)

var validate = newValidator()

type referenceKey struct{}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	options := map[string]func(*reference.Options, string) bool{
		"symptom_tag":     (*reference.Options).HasSymptom,
		"duration_option": (*reference.Options).HasDuration,
	}
	for tag, check := range options {
		err := v.RegisterValidationCtx(tag, func(ctx context.Context, fl validator.FieldLevel) bool {
			ref, ok := ctx.Value(referenceKey{}).(*reference.Data)
			if !ok {
				ref = reference.Default()
			}
			return check(&ref.Options, fl.Field().String())
		})
		if err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}

	return v
}

// Validate rejects malformed input before a run starts. Categorical values
// are checked against the option lists in ref. Every failure wraps
// ErrInvalidInput.
func Validate(ctx context.Context, in Input, ref *reference.Data) error {
	if ref == nil {
		ref = reference.Default()
	}
	ctx = context.WithValue(ctx, referenceKey{}, ref)

	var errs []error
	if err := validate.StructCtx(ctx, in); err != nil {
		errs = append(errs, err)
	}
	if in.Audio != nil {
		errs = append(errs, validateAudio(in.Audio, &ref.Options))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func validateAudio(a *AudioClassification, opts *reference.Options) error {
	var errs []error
	if !opts.HasAudioLabel(a.Label) {
		errs = append(errs, fmt.Errorf("audio: unknown classification %q", a.Label))
	}
	if err := validate.Var(a.Confidence, "gte=0,lte=1"); err != nil {
		errs = append(errs, fmt.Errorf("audio confidence %v: %w", a.Confidence, err))
	}
	if err := validate.Var(a.Probabilities, "dive,keys,required,endkeys,gte=0,lte=1"); err != nil {
		errs = append(errs, fmt.Errorf("audio probabilities: %w", err))
	}
	return errors.Join(errs...)
}
