package hosted

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func registerText(reg *evaluator.Registry) {
	reg.Register("text.upper", textMapper("text.upper", func() cases.Caser { return cases.Upper(language.Und) }))
	reg.Register("text.lower", textMapper("text.lower", func() cases.Caser { return cases.Lower(language.Und) }))
	reg.Register("text.title", textMapper("text.title", func() cases.Caser { return cases.Title(language.English) }))

	reg.Register("markdown.html", func(args []evaluator.Value) (evaluator.Value, error) {
		if err := argCount("markdown.html", args, 1, 1); err != nil {
			return nil, err
		}
		src, err := textArg("markdown.html", args[0])
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(src), &buf); err != nil {
			return nil, err
		}
		return evaluator.NewText(buf.String()), nil
	})

	reg.Register("crypto.bcrypt_hash", func(args []evaluator.Value) (evaluator.Value, error) {
		if err := argCount("crypto.bcrypt_hash", args, 1, 1); err != nil {
			return nil, err
		}
		plain, err := textArg("crypto.bcrypt_hash", args[0])
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		return evaluator.NewText(string(hash)), nil
	})

	reg.Register("crypto.bcrypt_check", func(args []evaluator.Value) (evaluator.Value, error) {
		if err := argCount("crypto.bcrypt_check", args, 2, 2); err != nil {
			return nil, err
		}
		hash, err := textArg("crypto.bcrypt_check", args[0])
		if err != nil {
			return nil, err
		}
		plain, err := textArg("crypto.bcrypt_check", args[1])
		if err != nil {
			return nil, err
		}
		ok := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
		return evaluator.FromGo(ok), nil
	})
}

// textMapper adapts a case mapping to a one-argument routine. A Caser holds
// state, so every call gets its own.
func textMapper(target string, caser func() cases.Caser) evaluator.Routine {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if err := argCount(target, args, 1, 1); err != nil {
			return nil, err
		}
		s, err := textArg(target, args[0])
		if err != nil {
			return nil, err
		}
		return evaluator.NewText(caser().String(s)), nil
	}
}
