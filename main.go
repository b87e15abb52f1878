package main

import "github.com/derickschaefer/bbcompare/cmd"

func main() {
	cmd.Execute()
}
