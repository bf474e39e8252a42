package main

import "crosspost/cmd"

func main() {
	cmd.Execute()
}
