package main

import (
	"context"
	"time"

	"github.com/yashpatelijc/text-to-csv/internal/app"
)

func main() {
	application := app.New()
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	application.Stop(ctx)
}
