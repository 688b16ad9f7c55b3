package main

import "github.com/encodeous/linksynth/cmd"

func main() {
	cmd.Execute()
}
