package main

import "github.com/shriram-30/SpotifyClone/cmd"

func main() {
	cmd.Execute()
}
