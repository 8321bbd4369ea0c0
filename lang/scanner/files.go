package scanner

import (
	"go/token"
	"os"

	langtok "github.com/mna/glox/lang/token"
)

// TokenAndValue combines the token kind with its decoded value.
type TokenAndValue struct {
	Token langtok.Token
	Value langtok.Value
}

// ScanFiles tokenizes each of files in turn, adding each one to fset, and
// returns the tokens produced per file. The returned error,
// if non-nil, is an ErrorList gathering every scan error across all files.
func ScanFiles(fset *token.FileSet, files ...string) ([][]TokenAndValue, error) {
	if len(files) == 0 {
		return nil, nil
	}

	var (
		s      Scanner
		tokVal langtok.Value
		el     ErrorList
	)

	out := make([][]TokenAndValue, len(files))
	for i, name := range files {
		b, err := os.ReadFile(name)
		if err != nil {
			el.Add(token.Position{Filename: name}, err.Error())
			continue
		}

		f := fset.AddFile(name, -1, len(b))
		s.Init(f, b, el.Add)
		for {
			tok := s.Scan(&tokVal)
			out[i] = append(out[i], TokenAndValue{Token: tok, Value: tokVal})
			if tok == langtok.EOF {
				break
			}
		}
	}
	el.Sort()
	return out, el.Err()
}
