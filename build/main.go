package main

import (
	"flag"

	"github.com/goyek/goyek/v2"
)

// Flags for debug-proxy task
var (
	targetURL = flag.String("target", "https://api.openai.com", "Target URL to proxy (for debug-proxy)")
	port      = flag.String("port", "8080", "Port to listen on (for debug-proxy)")
)

// Flags for validate-models task
var modelsDir = flag.String("models-dir", "models", "Descriptor directory relative to the module root (for validate-models)")

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"list"}
	}
	goyek.Main(args)
}
