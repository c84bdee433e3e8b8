package validation

import (
	"fmt"
	"html"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shaibs3/groupdir/internal/db"
)

// MaxDescriptionLength caps a submitted description
const MaxDescriptionLength = 500

// Errors maps a JSON field name to a human readable message
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = e[f]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// GroupRequest is the body of a group submission
type GroupRequest struct {
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description" validate:"required,max=500"`
	WhatsappLink string  `json:"whatsappLink" validate:"required"`
	Category     string  `json:"category" validate:"required,category"`
	Country      string  `json:"country" validate:"required,country"`
	ImageURL     *string `json:"imageUrl" validate:"omitempty,url"`
}

type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
	policy   *bluemonday.Policy
}

func New() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return db.IsCategory(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("failed to register category validation: %w", err)
	}
	if err := v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		return db.IsCountry(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("failed to register country validation: %w", err)
	}

	enT := en.New()
	trans, _ := ut.New(enT, enT).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}
	for tag, msg := range map[string]string{
		"category": "{0} must be one of " + strings.Join(db.Categories, ", "),
		"country":  "{0} must be one of " + strings.Join(db.Countries, ", "),
	} {
		if err := registerMessage(v, trans, tag, msg); err != nil {
			return nil, err
		}
	}

	return &Validator{
		validate: v,
		trans:    trans,
		policy:   bluemonday.StrictPolicy(),
	}, nil
}

func registerMessage(v *validator.Validate, trans ut.Translator, tag, msg string) error {
	err := v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, msg, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return s
		})
	if err != nil {
		return fmt.Errorf("failed to register %s translation: %w", tag, err)
	}
	return nil
}

// maxStripPasses bounds the decode/sanitize loop in StripMarkup
const maxStripPasses = 8

// StripMarkup removes every HTML tag from s and returns plain trimmed text.
// Entity-encoded tags are decoded and stripped as well.
func (v *Validator) StripMarkup(s string) string {
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(v.policy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	// Still decoding into new markup; drop the brackets outright
	return strings.TrimSpace(angleBrackets.Replace(s))
}

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// Group sanitizes and validates req. Failures are returned as Errors.
func (v *Validator) Group(req GroupRequest) (db.GroupInput, error) {
	req.Title = v.StripMarkup(req.Title)
	req.Description = v.StripMarkup(req.Description)
	req.WhatsappLink = strings.TrimSpace(req.WhatsappLink)
	req.Category = strings.TrimSpace(req.Category)
	req.Country = strings.TrimSpace(req.Country)
	if req.ImageURL != nil {
		img := strings.TrimSpace(*req.ImageURL)
		if img == "" {
			req.ImageURL = nil
		} else {
			req.ImageURL = &img
		}
	}

	if err := v.validate.Struct(req); err != nil {
		return db.GroupInput{}, v.translate(err)
	}
	return db.GroupInput{
		Title:        req.Title,
		Description:  req.Description,
		WhatsappLink: req.WhatsappLink,
		Category:     req.Category,
		Country:      req.Country,
		ImageURL:     req.ImageURL,
	}, nil
}

func (v *Validator) translate(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate input: %w", err)
	}
	out := make(Errors, len(validationErrs))
	for _, fe := range validationErrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = fe.Translate(v.trans)
		}
	}
	return out
}
