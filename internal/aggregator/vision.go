package aggregator

import (
	"context"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

type visionClient struct {
	c *vision.ImageAnnotatorClient
}

func (v visionClient) BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	return v.c.BatchAnnotateImages(ctx, req)
}

func (v visionClient) Close() error {
	return v.c.Close()
}

// NewVisionClientFactory returns a factory dialing Cloud Vision on every call.
// Empty endpoint/credentials fall back to the library defaults (ADC).
func NewVisionClientFactory(endpoint, credentialsFile string) ClientFactory {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	return func(ctx context.Context) (Client, error) {
		c, err := vision.NewImageAnnotatorClient(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return visionClient{c: c}, nil
	}
}
