package main

import (
	"github.com/filehose/filehose/cmd"
)

func main() {
	cmd.Execute()
}
