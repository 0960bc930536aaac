package main

import (
	"github.com/jlais/visiondemo/cmd"
	"github.com/jlais/visiondemo/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
