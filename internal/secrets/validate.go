package secrets

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// identPattern is what MODEL may contain: it is substituted without escaping.
var identPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// report errors by record field name, not Go field name
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "notblank", validators.NotBlank)
		mustRegister(v, "cstring", isCStringSafe)
		mustRegister(v, "cident", isCIdentSafe)
		mustRegister(v, "cport", isPort)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Errorf("registering %q validation: %w", tag, err))
	}
}

// isCStringSafe reports whether the value can be placed in a quoted C string literal
// once '"' and '\' are escaped. Control characters cannot.
func isCStringSafe(fl validator.FieldLevel) bool {
	return !containsControl(fl.Field().String())
}

func isCIdentSafe(fl validator.FieldLevel) bool {
	return identPattern.MatchString(fl.Field().String())
}

func isPort(fl validator.FieldLevel) bool {
	_, err := ParsePort(fl.Field().String())
	return err == nil
}

func containsControl(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return r < 0x20 || r == 0x7f
	}) >= 0
}

// ParsePort parses a TCP port in [1, 65535]. Surrounding whitespace is ignored,
// signs and non-decimal forms are not accepted.
func ParsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty port")
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer in [1, 65535]", s)
	}
	if n == 0 {
		return 0, fmt.Errorf("%q is not an integer in [1, 65535]", s)
	}
	return int(n), nil
}

// toFieldErrors maps validator failures to the package's error kinds.
func toFieldErrors(err error) []error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{err}
	}
	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required", "notblank":
			out = append(out, missingField(field))
		case "cport":
			_, perr := ParsePort(fmt.Sprint(fe.Value()))
			out = append(out, invalidPort(field, perr.Error()))
		case "cstring":
			out = append(out, unsafeInterpolation(field, "contains a control character"))
		case "cident":
			out = append(out, unsafeInterpolation(field, "must match "+identPattern.String()))
		default:
			out = append(out, fmt.Errorf("%s: failed %q validation", field, fe.Tag()))
		}
	}
	return out
}
