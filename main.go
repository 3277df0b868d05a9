package main

import "github.com/jsphweid/seqconv/cmd"

func main() {
	cmd.Execute()
}
