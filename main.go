package main

import "github.com/example/srscore/cmd"

func main() {
	cmd.Execute()
}
