package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/helpoutwithus/functions/internal/app"
	"github.com/helpoutwithus/functions/internal/function"
	"github.com/helpoutwithus/functions/internal/logging"
	"github.com/helpoutwithus/functions/internal/reminders"
)

func main() {
	a := app.MustLoad("reminders")
	svc := a.Reminders(context.Background())

	lambda.Start(func(ctx context.Context, ev function.Event[reminders.Request]) (function.Response, error) {
		ctx, _ = logging.WithInvocation(ctx, a.Log)
		return svc.Handle(ctx, ev), nil
	})
}
