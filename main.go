package main

import "catex/cmd"

func main() {
	cmd.Execute()
}
