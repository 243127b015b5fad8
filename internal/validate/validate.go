// Package validate checks exam component input before it reaches the
// timing engine.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/verte-zerg/examclock/internal/model"
	"github.com/verte-zerg/examclock/internal/timing"
)

var (
	setupOnce sync.Once
	validate  *govalidator.Validate
	trans     ut.Translator
)

// Errors maps a field path such as "component[0].start" to a readable
// message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e[k])
	}
	return strings.Join(parts, "; ")
}

func setup() {
	validate = govalidator.New(govalidator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("hhmm", func(fl govalidator.FieldLevel) bool {
		_, _, err := timing.ParseClock(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(fmt.Sprintf("register hhmm validation: %v", err))
	}

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(fmt.Sprintf("register translations: %v", err))
	}
	if err := validate.RegisterTranslation("hhmm", trans,
		func(t ut.Translator) error {
			return t.Add("hhmm", "{0} must be a 24-hour time in HH:MM format", true)
		},
		func(t ut.Translator, fe govalidator.FieldError) string {
			msg, err := t.T("hhmm", fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	); err != nil {
		panic(fmt.Sprintf("register hhmm translation: %v", err))
	}
}

// Components validates one or two component records.
func Components(components []model.Component) error {
	setupOnce.Do(setup)
	err := validate.Struct(model.Sheet{Components: components})
	if err == nil {
		return nil
	}
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := Errors{}
	for _, fe := range ve {
		key := strings.TrimPrefix(fe.Namespace(), "Sheet.")
		out[key] = fe.Translate(trans)
	}
	return out
}

// Warnings lists accepted but suspicious input: a finish time at or before
// the start. Once the start passes the presenter reports such a component
// finished, unless extra time moves the final end past the start.
func Warnings(c model.Component) []string {
	sh, sm, err := timing.ParseClock(c.StartTime)
	if err != nil {
		return nil
	}
	eh, em, err := timing.ParseClock(c.EndTime)
	if err != nil {
		return nil
	}
	if eh*60+em > sh*60+sm {
		return nil
	}
	label := strings.TrimSpace(c.Code)
	if label == "" {
		label = "component"
	}
	return []string{fmt.Sprintf("%s: finish time %s is not after start time %s", label, c.EndTime, c.StartTime)}
}
