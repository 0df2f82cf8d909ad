package main

import (
	"errors"
	"io/fs"
	stdLog "log"
	"time"

	"github.com/joho/godotenv"

	"github.com/Astemirdum/library-catalog/library/app"
	"github.com/Astemirdum/library-catalog/library/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		stdLog.Fatal("load envs from .env ", err)
	}
	cfg := config.NewConfig(
		config.WithWriteTimeout(time.Minute),
	)

	app.Run(cfg)
}
