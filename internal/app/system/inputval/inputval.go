// Package inputval validates decoded request bodies with struct tags.
//
// Field names in messages come from the `label` tag, falling back to the
// json name. Custom rules:
//   - objectid:   a 24-char hex ObjectID
//   - httpurl:    an absolute http(s) URL
//   - memberrole: volunteer | editor | co-organizer
//   - signuprole: student | organizer | sponsor
//
// Custom rules accept the empty string; pair them with `required` when needed.
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/campusevents/internal/domain/models"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Result collects validation failures.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

var (
	once     sync.Once
	validate *validator.Validate
	trans    ut.Translator
)

// overrides replace the library's default English wording.
var overrides = map[string]string{
	"required":   "{0} is required.",
	"email":      "A valid email address is required.",
	"max":        "{0} must be at most {1} characters.",
	"min":        "{0} must be at least {1} characters.",
	"oneof":      "{0} must be one of: {1}.",
	"objectid":   "{0} must be a valid id.",
	"httpurl":    "{0} must be a valid http(s) URL.",
	"memberrole": "{0} must be one of: volunteer, editor, co-organizer.",
	"signuprole": "{0} must be one of: student, organizer, sponsor.",
	"unique":     "{0} must not contain duplicates.",
}

func engine() (*validator.Validate, ut.Translator) {
	once.Do(func() {
		eng := en.New()
		uni := ut.New(eng, eng)
		trans, _ = uni.GetTranslator("en")

		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(labelOf)
		_ = en_translations.RegisterDefaultTranslations(validate, trans)

		_ = validate.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || primitive.IsValidObjectID(s)
		})
		_ = validate.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || IsValidHTTPURL(s)
		})
		_ = validate.RegisterValidation("memberrole", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || models.IsMemberRole(s)
		})
		_ = validate.RegisterValidation("signuprole", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "", models.RoleStudent, models.RoleOrganizer, models.RoleSponsor:
				return true
			}
			return false
		})

		for tag, text := range overrides {
			_ = validate.RegisterTranslation(tag, trans,
				func(t ut.Translator) error { return t.Add(tag, text, true) },
				func(t ut.Translator, fe validator.FieldError) string {
					msg, err := t.T(fe.Tag(), fe.Field(), fe.Param())
					if err != nil {
						return fe.Error()
					}
					return msg
				})
		}
	})
	return validate, trans
}

func labelOf(f reflect.StructField) string {
	if l := f.Tag.Get("label"); l != "" {
		return l
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name != "" {
		return name
	}
	return f.Name
}

// Validate runs the struct's `validate` tags.
func Validate(v any) Result {
	val, tr := engine()
	err := val.Struct(v)
	if err == nil {
		return Result{}
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Result{Errors: []FieldError{{Message: err.Error()}}}
	}
	out := Result{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fe.Translate(tr),
		})
	}
	return out
}

// IsValidEmail reports whether s is a bare RFC 5322 address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && addr.Name == ""
}

// IsValidHTTPURL reports whether s is an absolute http or https URL with a host.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
