// Package main is the entry point for the racelink CLI.
package main

import "github.com/racedaylabs/racelink/internal/cli"

func main() {
	cli.Execute()
}
