package main

import "github.com/saadjs/macroplan/cmd/macroplan"

func main() {
	macroplan.Execute()
}
