package main

import (
	"github.com/fputz/mailmirror/internal/cli"
)

func main() {
	cli.Execute()
}
