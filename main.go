package main

import "github.com/KaramelBytes/datadash/cmd"

func main() {
	cmd.Execute()
}
