// Package main is the entry point for the RuleForge detection-rule
// validation engine.
package main

import (
	"ruleforge/cmd"
)

func main() {
	cmd.Execute()
}
