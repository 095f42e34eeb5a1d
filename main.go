package main

import "github.com/ardanlabs/cffi-gen/cmd"

var version = "v0.2.0"

func main() {
	cmd.Execute(version)
}
