package main

import "github.com/kyradi/console-client/cmd/kyradi-console/cmd"

func main() {
	cmd.Execute()
}
