// Command gadgeto is the interactive session client.
package main

import "github.com/GriffinCanCode/gadgeto/internal/cli"

func main() {
	cli.Execute()
}
