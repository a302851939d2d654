package main

import "github.com/CarsonBurke/options-arb/cmd"

func main() {
	cmd.Execute()
}
