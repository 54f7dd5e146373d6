// ABOUTME: Entry point for the sendspin-mixer command
// ABOUTME: Hands off to the cobra command tree
package main

import "github.com/Sendspin/sendspin-mixer/internal/commands"

func main() {
	commands.Execute()
}
