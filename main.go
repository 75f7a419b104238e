// The main package for the showcase-sync executable.
package main

import "github.com/JakeFAU/showcase-sync/cmd"

func main() {
	cmd.Execute()
}
