package main

import "github.com/relforge/relgate/cmd/relgate/commands"

func main() {
	commands.Execute()
}
