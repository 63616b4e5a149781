package main

import "github.com/kiesman99/heattile/cmd"

func main() {
	cmd.Execute()
}
