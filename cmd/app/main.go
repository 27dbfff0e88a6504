package main

import (
	"github.com/suprdory/filmvote/core/internal/app"
	"github.com/suprdory/filmvote/core/internal/config"
)

func main() {
	app.Go(config.Load())
}
