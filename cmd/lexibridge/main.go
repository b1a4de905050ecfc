package main

import (
	"os"

	"lexibridge/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
