// Package labels turns a stored image into ranked candidate words using an
// external image classifier.
package labels

import (
	"context"
	"fmt"
	"strings"

	"github.com/matchasong/PictureShiritori/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultMaxLabels matches the number of labels requested per image.
const DefaultMaxLabels = 10

// DetectLabelsAPI is the subset of the Rekognition client used here.
type DetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionClassifier labels images already stored in a bucket.
type RekognitionClassifier struct {
	api       DetectLabelsAPI
	bucket    string
	maxLabels int32
	logger    *zap.Logger
}

func NewRekognitionClassifier(api DetectLabelsAPI, bucket string, maxLabels int, logger *zap.Logger) *RekognitionClassifier {
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabels
	}
	return &RekognitionClassifier{
		api:       api,
		bucket:    bucket,
		maxLabels: int32(maxLabels),
		logger:    logger,
	}
}

// Classify returns the classifier's labels for imageKey in ranked order.
// Labels without a usable name are dropped; an empty slice is a valid answer.
func (c *RekognitionClassifier) Classify(ctx context.Context, imageKey string) ([]models.Label, error) {
	out, err := c.api.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(c.bucket),
				Name:   aws.String(imageKey),
			},
		},
		MaxLabels: aws.Int32(c.maxLabels),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels for %s: %w", imageKey, err)
	}

	result := FromRekognition(out.Labels)
	c.logger.Debug("labels detected",
		zap.String("image", imageKey),
		zap.Int("returned", len(out.Labels)),
		zap.Int("usable", len(result)),
	)
	return result, nil
}

// FromRekognition normalizes raw labels, keeping their order.
func FromRekognition(raw []types.Label) []models.Label {
	result := make([]models.Label, 0, len(raw))
	for _, l := range raw {
		name := strings.TrimSpace(aws.ToString(l.Name))
		if name == "" {
			continue
		}
		confidence := decimal.NewFromFloat32(aws.ToFloat32(l.Confidence))
		result = append(result, models.Label{
			Name:       name,
			Confidence: models.NormalizeConfidence(confidence),
		})
	}
	return result
}
