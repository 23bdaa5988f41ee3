package hosted

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
)

var mondayLocales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_us": monday.LocaleEnUS,
	"en_gb": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"de_de": monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_fr": monday.LocaleFrFR,
	"fr_ca": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"es_es": monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_br": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"ru":    monday.LocaleRuRU,
	"pl":    monday.LocalePlPL,
	"sv":    monday.LocaleSvSE,
	"da":    monday.LocaleDaDK,
	"fi":    monday.LocaleFiFI,
	"ja":    monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"ko":    monday.LocaleKoKR,
}

// mondayLocale maps "de", "fr-CA" or "pt_BR" style names to a locale,
// falling back to US English.
func mondayLocale(name string) monday.Locale {
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	if loc, ok := mondayLocales[name]; ok {
		return loc
	}
	if i := strings.Index(name, "_"); i > 0 {
		if loc, ok := mondayLocales[name[:i]]; ok {
			return loc
		}
	}
	return monday.LocaleEnUS
}

func registerTime(reg *evaluator.Registry, opts Options) {
	// time.parse(text) or (text, zone): seconds since the epoch for free-form
	// date text such as "2024-12-01" or "Dec 1, 2024 10:00".
	reg.Register("time.parse", func(args []evaluator.Value) (evaluator.Value, error) {
		if err := argCount("time.parse", args, 1, 2); err != nil {
			return nil, err
		}
		text, err := textArg("time.parse", args[0])
		if err != nil {
			return nil, err
		}
		loc := time.UTC
		if len(args) == 2 {
			zone, err := textArg("time.parse", args[1])
			if err != nil {
				return nil, err
			}
			if loc, err = time.LoadLocation(zone); err != nil {
				return nil, err
			}
		}
		t, err := dateparse.ParseIn(text, loc, dateparse.PreferMonthFirst(true))
		if err != nil {
			return nil, gerrors.New("OP-0006", map[string]any{
				"Function": "time.parse",
				"Expected": "a recognisable date",
				"Got":      text,
			})
		}
		return evaluator.NewInteger(t.Unix()), nil
	})

	// time.format(seconds, layout) or (seconds, layout, locale): the layout
	// uses Go's reference date, e.g. "Monday 2 January 2006".
	reg.Register("time.format", func(args []evaluator.Value) (evaluator.Value, error) {
		if err := argCount("time.format", args, 2, 3); err != nil {
			return nil, err
		}
		secs, err := intArg("time.format", args[0])
		if err != nil {
			return nil, err
		}
		layout, err := textArg("time.format", args[1])
		if err != nil {
			return nil, err
		}
		locale := opts.Locale
		if len(args) == 3 {
			if locale, err = textArg("time.format", args[2]); err != nil {
				return nil, err
			}
		}
		t := time.Unix(secs, 0).UTC()
		return evaluator.NewText(monday.Format(t, layout, mondayLocale(locale))), nil
	})
}
