package main

import "github.com/quarrydata/sift/cmd"

func main() {
	cmd.Execute()
}
