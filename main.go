package main

import "github.com/kwarren/resonance/cmd"

func main() {
	cmd.Execute()
}
