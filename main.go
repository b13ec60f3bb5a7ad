package main

import (
	"github.com/sw33tLie/shopwatch/cmd"
)

func main() {
	cmd.Execute()
}
