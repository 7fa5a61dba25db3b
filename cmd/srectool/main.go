package main

import "github.com/anupcshan/srec2bin/cmd/srectool/cmd"

func main() {
	cmd.Execute()
}
