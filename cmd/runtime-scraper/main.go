// Command runtime-scraper is a Lambda function that reports when the AWS
// documentation's runtime tables drift from the baselines it was built with.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-lambda-examples/internal/scraper"
)

//go:embed runtimes/*.csv
var runtimes embed.FS

// checker is the part of the scraper the handler uses.
type checker interface {
	Check(ctx context.Context) (scraper.Report, error)
}

type handler struct {
	scraper checker
	logger  *zap.Logger
}

// Handle accepts any invocation payload: scheduled events, function URLs
// and API Gateway requests all get the same plain response.
func (h *handler) Handle(ctx context.Context, _ json.RawMessage) (events.APIGatewayV2HTTPResponse, error) {
	report, err := h.scraper.Check(ctx)
	if err != nil {
		h.logger.Error("runtime check failed", zap.Error(err))
		return events.APIGatewayV2HTTPResponse{}, err
	}

	for _, c := range report.Changes {
		h.logger.Info("changes detected", zap.String("table", c.File))
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "text/html"},
		Body:       report.Message(),
	}, nil
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer logger.Sync()

	baselines, err := fs.Sub(runtimes, "runtimes")
	if err != nil {
		logger.Fatal("loading baselines", zap.Error(err))
	}

	s := scraper.New(baselines, logger)
	if u := os.Getenv(scraper.URLEnv); u != "" {
		s.URL = u
	}

	h := &handler{
		scraper: s,
		logger:  logger,
	}
	lambda.Start(h.Handle)
}
