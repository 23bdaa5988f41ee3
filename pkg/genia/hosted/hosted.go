// Package hosted provides the host routines scripts reach through
// 'foreign "target"': filesystem listing, line reading, random numbers,
// text case mapping, dates, SQL, markdown, password hashing and PDF text.
package hosted

import (
	"strconv"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
)

// Options configures the routines that need outside state.
type Options struct {
	// DefaultDSN is used by sql.query and sql.exec when called with an empty
	// data source.
	DefaultDSN string
	// Locale picks month and day names for time.format, e.g. "de" or "fr_FR".
	Locale string
	// Seed makes the random routines deterministic when non-zero.
	Seed uint64
}

// Register installs every hosted routine in reg.
func Register(reg *evaluator.Registry, opts Options) {
	registerOS(reg)
	registerRandom(reg, opts)
	registerText(reg)
	registerTime(reg, opts)
	registerSQL(reg, opts)
	registerPDF(reg)
}

func argCount(target string, args []evaluator.Value, min, max int) error {
	if len(args) >= min && (max < 0 || len(args) <= max) {
		return nil
	}
	expected := "at least " + strconv.Itoa(min) + " arguments"
	switch {
	case min == max:
		expected = strconv.Itoa(min) + " arguments"
	case max >= 0:
		expected = strconv.Itoa(min) + " to " + strconv.Itoa(max) + " arguments"
	}
	return gerrors.New("OP-0006", map[string]any{
		"Function": target,
		"Expected": expected,
		"Got":      len(args),
	})
}

func textArg(target string, v evaluator.Value) (string, error) {
	if t, ok := v.(*evaluator.Text); ok {
		return t.Value, nil
	}
	return "", gerrors.New("OP-0006", map[string]any{
		"Function": target,
		"Expected": "text",
		"Got":      v.Inspect(),
	})
}

func intArg(target string, v evaluator.Value) (int64, error) {
	if i, ok := v.(*evaluator.Integer); ok {
		return i.Value, nil
	}
	return 0, gerrors.New("OP-0006", map[string]any{
		"Function": target,
		"Expected": "an integer",
		"Got":      v.Inspect(),
	})
}
