package aggregator

import (
	"context"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

type mockClient struct {
	annotateFn func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
	closeErr   error
	calls      int
	closed     int
}

func (m *mockClient) BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	m.calls++
	return m.annotateFn(ctx, req)
}

func (m *mockClient) Close() error {
	m.closed++
	return m.closeErr
}

func factoryFor(c *mockClient) ClientFactory {
	return func(ctx context.Context) (Client, error) {
		return c, nil
	}
}
