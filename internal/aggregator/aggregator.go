// Package aggregator turns a set of requested detection categories into one
// pixel-space polygon list using a single batched Vision request per image.
package aggregator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/UnendingLoop/PhotoBlur/internal/mwlogger"
	"google.golang.org/grpc/codes"
)

// DefaultPlateLabel is the localized-object name Vision uses for license plates.
const DefaultPlateLabel = "License plate"

// Client - контракт annotation-провайдера, открывается на каждый вызов
type Client interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
	io.Closer
}

type ClientFactory func(ctx context.Context) (Client, error)

type Aggregator struct {
	newClient  ClientFactory
	plateLabel string
}

func New(factory ClientFactory, plateLabel string) *Aggregator {
	if plateLabel == "" {
		plateLabel = DefaultPlateLabel
	}
	return &Aggregator{newClient: factory, plateLabel: plateLabel}
}

// DetectRegions returns polygons for every requested category, faces first,
// then plates, then logos. An empty mask never reaches the provider.
// A failed request is reported as model.ErrProvider; a per-image error only
// drops that image's detections.
func (a *Aggregator) DetectRegions(ctx context.Context, img []byte, mask model.Category) ([]model.Polygon, error) {
	polygons := make([]model.Polygon, 0)
	if mask.Empty() {
		return polygons, nil
	}

	logger := mwlogger.LoggerFromContext(ctx)

	client, err := a.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create annotator client: %v", model.ErrProvider, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close annotator client")
		}
	}()

	resp, err := client.BatchAnnotateImages(ctx, buildRequest(img, mask))
	if err != nil {
		return nil, fmt.Errorf("%w: batch annotate: %v", model.ErrProvider, err)
	}

	dims := &imageDims{data: img}
	for i, res := range resp.GetResponses() {
		if st := res.GetError(); st != nil {
			logger.Warn().
				Int("response", i).
				Str("code", codes.Code(st.GetCode()).String()).
				Str("message", st.GetMessage()).
				Msg("Annotator reported image error, skipping its detections")
			continue
		}

		for _, face := range res.GetFaceAnnotations() {
			polygons = append(polygons, pixelPolygon(face.GetFdBoundingPoly()))
		}

		for _, obj := range res.GetLocalizedObjectAnnotations() {
			if obj.GetName() != a.plateLabel {
				continue
			}
			w, h, err := dims.get()
			if err != nil {
				logger.Warn().Err(err).Msg("Failed to read image dimensions, skipping plates")
				break
			}
			polygons = append(polygons, denormalize(obj.GetBoundingPoly(), w, h))
		}

		for _, logo := range res.GetLogoAnnotations() {
			polygons = append(polygons, pixelPolygon(logo.GetBoundingPoly()))
		}
	}

	return polygons, nil
}

var categoryFeatures = []struct {
	cat     model.Category
	feature visionpb.Feature_Type
}{
	{model.CategoryFace, visionpb.Feature_FACE_DETECTION},
	{model.CategoryPlate, visionpb.Feature_OBJECT_LOCALIZATION},
	{model.CategoryLogo, visionpb.Feature_LOGO_DETECTION},
}

func buildRequest(img []byte, mask model.Category) *visionpb.BatchAnnotateImagesRequest {
	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: img},
	}
	for _, cf := range categoryFeatures {
		if mask.Has(cf.cat) {
			// MaxResults 0 - без ограничения количества результатов
			req.Features = append(req.Features, &visionpb.Feature{Type: cf.feature, MaxResults: 0})
		}
	}

	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	}
}

func pixelPolygon(poly *visionpb.BoundingPoly) model.Polygon {
	vertices := poly.GetVertices()
	points := make(model.Polygon, 0, len(vertices))
	for _, v := range vertices {
		points = append(points, model.Point{X: int(v.GetX()), Y: int(v.GetY())})
	}
	return points
}

func denormalize(poly *visionpb.BoundingPoly, width, height int) model.Polygon {
	vertices := poly.GetNormalizedVertices()
	points := make(model.Polygon, 0, len(vertices))
	for _, v := range vertices {
		points = append(points, model.Point{
			X: int(math.Round(float64(v.GetX()) * float64(width))),
			Y: int(math.Round(float64(v.GetY()) * float64(height))),
		})
	}
	return points
}

// imageDims decodes the image header once, only when plates need it
type imageDims struct {
	data   []byte
	w, h   int
	err    error
	loaded bool
}

func (d *imageDims) get() (int, int, error) {
	if !d.loaded {
		d.loaded = true
		cfg, _, err := image.DecodeConfig(bytes.NewReader(d.data))
		if err != nil {
			d.err = fmt.Errorf("decode image config: %w", err)
		} else {
			d.w, d.h = cfg.Width, cfg.Height
		}
	}
	return d.w, d.h, d.err
}
