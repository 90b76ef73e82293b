package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/helpoutwithus/functions/internal/app"
	"github.com/helpoutwithus/functions/internal/function"
	"github.com/helpoutwithus/functions/internal/logging"
	"github.com/helpoutwithus/functions/internal/membership"
)

func main() {
	a := app.MustLoad("addorguserrole")
	svc := membership.New(a.Backend(), a.Mailer(), a.Env.Templates(), a.Log)

	lambda.Start(func(ctx context.Context, ev function.Event[membership.AddOrgUserRoleRequest]) (function.Response, error) {
		ctx, _ = logging.WithInvocation(ctx, a.Log)
		return svc.AddOrgUserRole(ctx, ev), nil
	})
}
