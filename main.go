package main

import "github.com/markb/bazarbot/cmd"

func main() {
	cmd.Execute()
}
