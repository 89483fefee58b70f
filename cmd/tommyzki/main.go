package main

import (
	"os"

	"github.com/tommyzki/tommyzki-translate/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
