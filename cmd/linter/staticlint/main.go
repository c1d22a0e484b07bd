// Команда staticlint запускает анализатор honeylint.
package main

import (
	"github.com/RoGogDBD/honeypot-dashboard/cmd/linter"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(linter.Analyzer)
}
