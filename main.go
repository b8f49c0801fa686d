package main

import "reascribe/cmd"

func main() {
	cmd.Execute()
}
