package hosted

import (
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
)

// maxPDFSize is the largest file pdf.text will open.
const maxPDFSize = 50 * 1024 * 1024

func registerPDF(reg *evaluator.Registry) {
	// pdf.text(path): the plain text of each page as a lazy sequence. Scanned
	// pages yield empty text.
	reg.Register("pdf.text", func(args []evaluator.Value) (evaluator.Value, error) {
		if err := argCount("pdf.text", args, 1, 1); err != nil {
			return nil, err
		}
		path, err := textArg("pdf.text", args[0])
		if err != nil {
			return nil, err
		}
		return PDFPages(path)
	})
}

// PDFPages opens path and returns a sequence that extracts one page per pull.
// The file is closed after the last page.
func PDFPages(path string) (*evaluator.Iterator, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, ioError("stat", path, err)
	}
	if info.Size() > maxPDFSize {
		return nil, ioError("open", path, os.ErrInvalid)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, ioError("open", path, err)
	}

	page, total := 1, r.NumPage()
	return evaluator.NewIterator(func() (evaluator.Value, bool, error) {
		if page > total {
			if f != nil {
				f.Close()
				f = nil
			}
			return nil, false, nil
		}
		p := r.Page(page)
		page++
		if p.V.IsNull() {
			return evaluator.NewText(""), true, nil
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, false, ioError("extract text from", path, err)
		}
		return evaluator.NewText(strings.TrimSpace(text)), true, nil
	}), nil
}
