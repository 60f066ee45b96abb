package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/config"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/stream"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Run the DynamoDB Streams relay as an AWS Lambda function",
	Long: `stream starts the Lambda runtime loop. Every INSERT or MODIFY record of the
feature tables is published as a feature_available event to the configured
notify backend. Attach it to both table streams with a NEW_AND_OLD_IMAGES view.`,
	RunE: runStream,
}

func runStream(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if settings.NotifyBackend == config.NotifyNone {
		logger.Warn("notify backend is none, stream records will be dropped")
	}
	notifier, closeNotifier, err := newNotifier(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	handler := stream.NewHandler(notifier, logger)
	lambda.StartWithOptions(handler.HandleFeatureStream, lambda.WithContext(ctx))
	return nil
}
