// ABOUTME: Entry point for the orgmap binary
// ABOUTME: Hands the command line to the cobra command tree
package main

import "github.com/harperreed/orgmap/cli"

const version = "0.2.0"

func main() {
	cli.Execute(version)
}
