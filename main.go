package main

import "github.com/spachava753/fieldgen/cmd"

func main() {
	cmd.Execute()
}
