// chatwarden — guarded terminal chat assistant.
package main

import "chatwarden/internal/cli"

func main() {
	cli.Execute()
}
