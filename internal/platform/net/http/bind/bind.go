// Package bind decodes and validates JSON request bodies
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "bemanning/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// MsgInvalidJSON is the caller facing message for bodies that do not decode
const MsgInvalidJSON = "Ugyldig JSON i forespørselen."

// MsgInvalidFields heads a validation error, per field messages go in details
const MsgInvalidFields = "Ett eller flere felt er ugyldige."

// ValidatorSvc holds the validator and its translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *ValidatorSvc
)

// Get returns the validator singleton
func Get() *ValidatorSvc {
	vOnce.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		// shorter wording than the stock translations
		override(v, trans, "min", "{0} must be at least {1} characters")
		override(v, trans, "max", "{0} must be at most {1} characters")
		override(v, trans, "required", "{0} is required")

		vSvc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return vSvc
}

func jsonName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	if tag == "" || tag == "-" {
		return fld.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

func override(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// JSONOptions controls ParseJSON
type JSONOptions struct {
	MaxBytes        int64 // default 64KiB
	DisallowUnknown bool  // default true
}

func defaults() JSONOptions { return JSONOptions{MaxBytes: 64 << 10, DisallowUnknown: true} }

// ParseJSON decodes one JSON object into T and validates it
// decode failures are ErrorCodeJSON, rule failures ErrorCodeValidation with per field details
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero T
	o := defaults()
	if len(opts) > 0 {
		o = opts[0]
	}
	defer r.Body.Close()

	var body io.Reader = r.Body
	if o.MaxBytes > 0 {
		body = io.LimitReader(r.Body, o.MaxBytes)
	}
	dec := json.NewDecoder(body)
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}

	var dst T
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.EOF) {
			return zero, perr.Wrap(err, perr.ErrorCodeJSON, "Forespørselen mangler innhold.")
		}
		return zero, perr.Wrap(err, perr.ErrorCodeJSON, MsgInvalidJSON)
	}
	if dec.More() {
		return zero, perr.New(perr.ErrorCodeJSON, MsgInvalidJSON)
	}

	if err := Validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// Validate runs struct rules on v and returns a Validation error with details
func Validate(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	details := FieldMessages(err)
	if len(details) == 0 {
		return perr.Wrap(err, perr.ErrorCodeValidation, MsgInvalidFields)
	}
	return perr.WithDetails(perr.New(perr.ErrorCodeValidation, MsgInvalidFields), details)
}

// FieldMessages maps each failing json field to its translated message
// the first failure per field wins
func FieldMessages(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = fe.Translate(Get().Translator)
	}
	return out
}
