package main

import "github.com/timewise-hq/timewise/cmd"

func main() {
	cmd.Execute()
}
