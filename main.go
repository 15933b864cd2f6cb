package main

import "github.com/mj1618/navsync/cmd"

func main() {
	cmd.Execute()
}
