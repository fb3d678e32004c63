package main

// main is the entry point for the tile-converter application. Build-time
// variables are declared in root.go.
func main() {
	Execute()
}
