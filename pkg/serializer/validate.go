package serializer

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	defaultValidate   *validator.Validate
	defaultTranslator ut.Translator
	defaultOnce       sync.Once
)

const skipField = "-"

func defaultValidation() (*validator.Validate, ut.Translator) {
	defaultOnce.Do(func() {
		defaultValidate, defaultTranslator = NewValidation()
	})
	return defaultValidate, defaultTranslator
}

// NewValidation returns a validator reporting serialized field names and an
// English translator registered with its default messages.
func NewValidation() (*validator.Validate, ut.Translator) {
	v := validator.New()

	// Use serialized names in validation errors so that they match the record
	// keys. Fields that are not serialized report as "-".
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fieldTag(fld).Name
		if name == "" {
			return skipField
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(fmt.Sprintf("serializer: register translations: %v", err))
	}
	return v, trans
}

// collectFieldErrors runs struct validation on target and records one
// translated message per failed field. Non-validation errors are returned
// as server errors.
func collectFieldErrors(v *validator.Validate, trans ut.Translator, target any, detail ErrorDetail) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validation panic: %v", r)
		}
	}()

	validationErr := v.Struct(target)
	if validationErr == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(validationErr, &verrs) {
		return validationErr
	}
	for _, ve := range verrs {
		field := ve.Field()
		if field == skipField {
			continue
		}
		if detail.Has(field) {
			// keep the conversion error, it explains the zero value
			continue
		}
		msg := ve.Error()
		if trans != nil {
			msg = ve.Translate(trans)
		}
		detail.Add(field, msg)
	}
	return nil
}

// invokeCustomValidation runs either context-aware or regular model
// validation. ValidationError results become client errors under
// NonFieldErrors unless they carry their own detail.
func invokeCustomValidation(c *Context, v any, detail ErrorDetail) error {
	var err error
	switch m := v.(type) {
	case ContextValidator:
		err = m.Validate(c.Context())
	case Validator:
		err = m.Validate()
	default:
		return nil
	}
	return classify(err, detail)
}

func classify(err error, detail ErrorDetail) error {
	if err == nil {
		return nil
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		detail.Merge(valErr.Detail)
		return nil
	}
	var listErr interface{ GetErrors() []string }
	if errors.As(err, &listErr) {
		for _, msg := range listErr.GetErrors() {
			detail.Add(NonFieldErrors, msg)
		}
		return nil
	}
	return err
}
