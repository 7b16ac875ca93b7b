package numgen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"strconv"
)

// ParseDecl reads a declaration file and returns the name of its single
// top level var and the SpaceDef it holds.  The file is read as source,
// it is never compiled.
func ParseDecl(filename string, src io.Reader) (string, *SpaceDef, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return "", nil, err
	}
	var spec *ast.ValueSpec
	for _, candidate := range file.Decls {
		d, ok := candidate.(*ast.GenDecl)
		if !ok {
			return "", nil, fmt.Errorf("%s: unexpected %T in declarations", filename, candidate)
		}
		if d.Tok != token.VAR {
			continue
		}
		for _, s := range d.Specs {
			vs := s.(*ast.ValueSpec)
			if spec != nil {
				return "", nil, fmt.Errorf("%s: can only process one declaration at a time", filename)
			}
			spec = vs
		}
	}
	if spec == nil {
		return "", nil, fmt.Errorf("%s: no top level declaration found", filename)
	}
	if len(spec.Names) != 1 || len(spec.Values) != 1 {
		return "", nil, fmt.Errorf("%s: expected one name and one value but found %d and %d",
			filename, len(spec.Names), len(spec.Values))
	}
	lit, err := compositeOf(spec.Values[0])
	if err != nil {
		return "", nil, fmt.Errorf("%s: %v", filename, err)
	}
	def := &SpaceDef{}
	if err := fillSpace(def, lit); err != nil {
		return "", nil, fmt.Errorf("%s: %v", filename, err)
	}
	return spec.Names[0].Name, def, nil
}

func compositeOf(e ast.Expr) (*ast.CompositeLit, error) {
	if u, ok := e.(*ast.UnaryExpr); ok && u.Op == token.AND {
		e = u.X
	}
	lit, ok := e.(*ast.CompositeLit)
	if !ok {
		return nil, fmt.Errorf("expected a composite literal but found %T", e)
	}
	return lit, nil
}

func fillSpace(def *SpaceDef, lit *ast.CompositeLit) error {
	for _, elt := range lit.Elts {
		key, value, err := keyed(elt)
		if err != nil {
			return err
		}
		switch key {
		case "Type":
			def.Type, err = stringOf(value)
		case "SetName":
			def.SetName, err = stringOf(value)
		case "Description":
			def.Description, err = stringOf(value)
		case "Kind":
			var k string
			k, err = kindOf(value)
			def.Kind = Kind(k)
		case "Member":
			err = fillMembers(def, value)
		default:
			err = fmt.Errorf("unknown SpaceDef field %s", key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func fillMembers(def *SpaceDef, e ast.Expr) error {
	list, err := compositeOf(e)
	if err != nil {
		return err
	}
	for _, elt := range list.Elts {
		mlit, err := compositeOf(elt)
		if err != nil {
			return err
		}
		var m MemberDef
		for _, f := range mlit.Elts {
			key, value, err := keyed(f)
			if err != nil {
				return err
			}
			switch key {
			case "Name":
				m.Name, err = stringOf(value)
			case "Description":
				m.Description, err = stringOf(value)
			case "Code":
				m.Code, err = uintOf(value)
			default:
				err = fmt.Errorf("unknown MemberDef field %s", key)
			}
			if err != nil {
				return err
			}
		}
		def.Member = append(def.Member, m)
	}
	return nil
}

func keyed(e ast.Expr) (string, ast.Expr, error) {
	kv, ok := e.(*ast.KeyValueExpr)
	if !ok {
		return "", nil, fmt.Errorf("fields must be keyed")
	}
	id, ok := kv.Key.(*ast.Ident)
	if !ok {
		return "", nil, fmt.Errorf("unexpected key %T", kv.Key)
	}
	return id.Name, kv.Value, nil
}

func stringOf(e ast.Expr) (string, error) {
	b, ok := e.(*ast.BasicLit)
	if !ok || b.Kind != token.STRING {
		return "", fmt.Errorf("expected a string literal")
	}
	return strconv.Unquote(b.Value)
}

func uintOf(e ast.Expr) (uint, error) {
	b, ok := e.(*ast.BasicLit)
	if !ok || b.Kind != token.INT {
		return 0, fmt.Errorf("expected an integer literal")
	}
	v, err := strconv.ParseUint(b.Value, 0, 32)
	return uint(v), err
}

// kindOf accepts either numgen.Exception style selectors or a string.
func kindOf(e ast.Expr) (string, error) {
	if sel, ok := e.(*ast.SelectorExpr); ok {
		switch sel.Sel.Name {
		case "Exception":
			return string(Exception), nil
		case "CoreInterrupt":
			return string(CoreInterrupt), nil
		case "ExternalInterrupt":
			return string(ExternalInterrupt), nil
		case "Priority":
			return string(Priority), nil
		case "HartId":
			return string(HartId), nil
		}
		return "", fmt.Errorf("unknown kind %s", sel.Sel.Name)
	}
	return stringOf(e)
}
