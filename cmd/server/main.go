package main

import (
	"github.com/OFFIS-RIT/studymap/internal/server"
	"github.com/OFFIS-RIT/studymap/internal/util"
	"github.com/OFFIS-RIT/studymap/pkg/logger"
	"github.com/OFFIS-RIT/studymap/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	server.Init()
}
