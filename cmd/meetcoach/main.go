// Package main provides the meetcoach CLI.
package main

import "github.com/dfalkner/meetcoach/internal/cli"

func main() {
	cli.Execute()
}
