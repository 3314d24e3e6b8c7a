package main

import "github.com/quocvuong92/ai-chat/cmd"

func main() {
	cmd.Execute()
}
