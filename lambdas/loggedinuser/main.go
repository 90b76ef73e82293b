package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/helpoutwithus/functions/internal/app"
	"github.com/helpoutwithus/functions/internal/function"
	"github.com/helpoutwithus/functions/internal/logging"
	"github.com/helpoutwithus/functions/internal/users"
)

func main() {
	a := app.MustLoad("loggedinuser")
	svc := users.New(a.Backend(), a.Log)

	lambda.Start(func(ctx context.Context, ev function.Event[struct{}]) (function.Response, error) {
		ctx, _ = logging.WithInvocation(ctx, a.Log)
		return svc.LoggedInUser(ctx, ev), nil
	})
}
