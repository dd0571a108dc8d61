package main

import "hourtrim/cmd"

func main() {
	cmd.Execute()
}
