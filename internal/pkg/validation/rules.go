package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// DNI: 7 to 10 digits once separators are stripped
	DNIPattern = `^\d{7,10}$`

	// Phone: 7 to 15 digits, nothing else
	PhonePattern = `^\d{7,15}$`

	// DateLayout is the only accepted calendar date format
	DateLayout = "2006-01-02"
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	DNI   *regexp.Regexp
	Phone *regexp.Regexp
}{
	DNI:   regexp.MustCompile(DNIPattern),
	Phone: regexp.MustCompile(PhonePattern),
}

// NormalizeDNI trims the value and strips dashes, dots and spaces.
func NormalizeDNI(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '.', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func validateDNI(fl validator.FieldLevel) bool {
	return CompiledPatterns.DNI.MatchString(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	return CompiledPatterns.Phone.MatchString(fl.Field().String())
}

// notFuture builds the rule bound to the given clock. Unparseable values pass
// here; the datetime rule reports them.
func notFuture(now func() time.Time) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := time.Parse(DateLayout, fl.Field().String())
		if err != nil {
			return true
		}
		y, m, day := now().Date()
		today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
		return !d.After(today)
	}
}

// validateDecimals checks that a float carries at most N decimal places ("decimals=2").
func validateDecimals(fl validator.FieldLevel) bool {
	places := 2
	if p := fl.Param(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return false
		}
		places = n
	}
	scale := math.Pow10(places)
	v := fl.Field().Float() * scale
	return math.Abs(v-math.Round(v)) < 1e-6
}
