// Package linter содержит анализатор, запрещающий аварийное завершение
// и блокирующие паузы вне точки входа.
package linter

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer сообщает о panic, log.Fatal* и os.Exit вне main.main
// и о time.Sleep в коде, не относящемся к тестам.
var Analyzer = &analysis.Analyzer{
	Name: "honeylint",
	Doc:  "reports builtin panic and log.Fatal/os.Exit outside main.main, and time.Sleep outside tests",
	Run:  run,
}

const (
	msgPanic = "use of builtin panic is discouraged"
	msgExit  = "call to log.Fatal or os.Exit outside main.main"
	msgSleep = "time.Sleep outside tests; use a ticker or context"
)

// scope описывает место вызова.
type scope struct {
	inMain bool
	isTest bool
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		isTest := strings.HasSuffix(pass.Fset.Position(file.Pos()).Filename, "_test.go")
		isMainPkg := file.Name.Name == "main"

		for _, decl := range file.Decls {
			sc := scope{isTest: isTest}
			if fDecl, ok := decl.(*ast.FuncDecl); ok {
				if fDecl.Body == nil {
					continue
				}
				sc.inMain = isMainPkg && fDecl.Recv == nil && fDecl.Name.Name == "main"
			}
			ast.Inspect(decl, func(node ast.Node) bool {
				if call, ok := node.(*ast.CallExpr); ok {
					checkCall(pass, call, sc)
				}
				return true
			})
		}
	}
	return nil, nil
}

func checkCall(pass *analysis.Pass, call *ast.CallExpr, sc scope) {
	if id, ok := call.Fun.(*ast.Ident); ok {
		// Встроенный panic не принадлежит ни одному пакету.
		if obj := pass.TypesInfo.Uses[id]; id.Name == "panic" && obj != nil && obj.Pkg() == nil {
			pass.Reportf(id.Pos(), msgPanic)
		}
		return
	}

	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return
	}
	pkgPath, ok := importedPath(pass, sel)
	if !ok {
		return
	}

	name := sel.Sel.Name
	switch {
	case pkgPath == "log" && strings.HasPrefix(name, "Fatal") && !sc.inMain:
		pass.Reportf(sel.Sel.Pos(), msgExit)
	case pkgPath == "os" && name == "Exit" && !sc.inMain:
		pass.Reportf(sel.Sel.Pos(), msgExit)
	case pkgPath == "time" && name == "Sleep" && !sc.isTest:
		pass.Reportf(sel.Sel.Pos(), msgSleep)
	}
}

// importedPath возвращает путь пакета для вызова вида pkg.Func.
func importedPath(pass *analysis.Pass, sel *ast.SelectorExpr) (string, bool) {
	ident, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", false
	}
	pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	if !ok {
		return "", false
	}
	return pkgName.Imported().Path(), true
}
