package main

import "github.com/matchasong/PictureShiritori/cmd"

func main() {
	cmd.Execute()
}
