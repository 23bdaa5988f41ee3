package evaluator

import (
	"iter"
	"strconv"
	"strings"

	"github.com/m0smith/genia-12-2024/pkg/genia/ast"
)

// Run evaluates the program's statements in order in the global frame and
// returns the last value. Bindings committed before an error stay in place.
func Run(program *ast.Program, s *Session) (Value, error) {
	var result Value = UNIT
	for _, stmt := range program.Statements {
		v, err := Eval(stmt, s)
		if err != nil {
			s.Env.reset()
			return nil, s.withFile(err)
		}
		result = v
	}
	return result, nil
}

// SetArgs binds $ARGS to the script's command line arguments.
func (s *Session) SetArgs(args []string) {
	s.Env.SetRecord("$ARGS", FromGo(append([]string(nil), args...)))
}

// SetRecord makes line the current record: NR counts records, $0 is the
// whole line, $1..$NF its fields and NF their number. Fields left over from a
// longer previous record are removed.
func (s *Session) SetRecord(line string) {
	var fields []string
	if s.FieldSeparator == "" {
		fields = strings.Fields(line)
	} else if line != "" {
		fields = strings.Split(line, s.FieldSeparator)
	}

	for i := len(fields) + 1; i <= s.nf; i++ {
		s.Env.ClearRecord("$" + strconv.Itoa(i))
	}
	s.nr++
	s.nf = len(fields)

	s.Env.SetRecord("NR", NewInteger(s.nr))
	s.Env.SetRecord("NF", NewInteger(int64(len(fields))))
	s.Env.SetRecord("$0", NewText(line))
	for i, f := range fields {
		s.Env.SetRecord("$"+strconv.Itoa(i+1), NewText(f))
	}
	if len(fields) > 0 {
		s.Env.SetRecord("$NF", NewText(fields[len(fields)-1]))
	} else {
		s.Env.ClearRecord("$NF")
	}
}

// isDefinition reports whether stmt only introduces names: named function
// definitions and data definitions.
func isDefinition(stmt ast.Statement) bool {
	switch st := stmt.(type) {
	case *ast.DataDefinition:
		return true
	case *ast.ExpressionStatement:
		fd, ok := st.Expression.(*ast.FunctionDefinition)
		return ok && fd.Name != ""
	}
	return false
}

// RunRecords runs the definitions in program once, then the remaining
// statements once per record. It returns the value of the last statement
// evaluated.
func RunRecords(program *ast.Program, s *Session, records iter.Seq2[string, error]) (Value, error) {
	var defs, body ast.Program
	for _, stmt := range program.Statements {
		if isDefinition(stmt) {
			defs.Statements = append(defs.Statements, stmt)
		} else {
			body.Statements = append(body.Statements, stmt)
		}
	}

	result, err := Run(&defs, s)
	if err != nil {
		return nil, err
	}
	for line, err := range records {
		if err != nil {
			return nil, err
		}
		s.SetRecord(line)
		if result, err = Run(&body, s); err != nil {
			return nil, err
		}
	}
	return result, nil
}
