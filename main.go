package main

import "github.com/recollect-ai/recollect/cmd"

func main() {
	cmd.Execute()
}
