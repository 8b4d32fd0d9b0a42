package main

import "stringtable-translator/internal/cli"

func main() {
	cli.Execute()
}
