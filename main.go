package main

import "github.com/tanq16/recudl/cmd"

func main() {
	cmd.Execute()
}
