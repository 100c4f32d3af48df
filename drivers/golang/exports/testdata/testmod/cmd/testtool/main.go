package main

var Version = "dev"

const usage = `testtool prints its release.

Version = "0.0.1" is read from the build.
`

func MainFunc() {}

func main() {
	if Version == "" {
		Version = "0.0.0-local"
	}
	println(usage, Version)
}
