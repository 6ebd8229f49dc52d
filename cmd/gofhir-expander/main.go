// Package main implements the gofhir-expander CLI tool.
package main

import "github.com/gofhir/expander/internal/cli"

func main() {
	cli.Execute()
}
