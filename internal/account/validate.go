package account

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Standards are the school years the portal offers.
var Standards = []string{"8th", "9th", "10th"}

// Languages are the tutor languages the portal offers.
var Languages = []string{"en", "hi", "gu"}

// custom validation tags
const (
	notBlankTag    = "notblank"
	anySettingTag  = "any_setting"
	matchesPassTag = "eqfield"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report form field names, not Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	validate.RegisterStructValidation(settingsStructValidation, SettingsForm{})

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, anySettingTag, matchesPassTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case anySettingTag:
		return "at least one setting is required"
	case matchesPassTag:
		return "passwords don't match"
	default:
		return ""
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

// settingsStructValidation requires at least one field of a SettingsForm.
func settingsStructValidation(sl validator.StructLevel) {
	if f, ok := sl.Current().Interface().(SettingsForm); ok {
		if f.Standard == "" && f.Language == "" {
			sl.ReportError(f.Standard, "standard", "Standard", anySettingTag, "")
		}
	}
}

// ValidationError lists the invalid fields of a form, keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return "account: " + strings.Join(msgs, "; ")
}

// check validates form and converts validator errors to a *ValidationError.
func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, dup := ve.Fields[fe.Field()]; !dup {
			ve.Fields[fe.Field()] = fe.Translate(translator)
		}
	}
	return ve
}
