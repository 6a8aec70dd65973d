// fridactl keeps the frida versions on a host and its Android devices in
// agreement: it inspects both sides over adb, recommends a compatible
// frida-server build, installs it, and manages the server lifecycle.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", failMark, err)
		os.Exit(1)
	}
}
