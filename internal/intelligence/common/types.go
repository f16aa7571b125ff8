package common

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/LegisGraph/pkg/errors"
)

// ---------------------------------------------------------------------------
// ModelBackend interface
// ---------------------------------------------------------------------------

// ModelBackend defines the interface for invoking a remote sequence tagger.
type ModelBackend interface {
	Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error)
	Healthy(ctx context.Context) error
	Close() error
}

// ErrInvalidInput is returned for a malformed PredictRequest.
var ErrInvalidInput = errors.Sentinel(errors.ErrCodeValidation, "invalid predict request")

// ---------------------------------------------------------------------------
// Predict types
// ---------------------------------------------------------------------------

// PredictRequest carries one tokenized sentence for tagging.
type PredictRequest struct {
	ModelName    string            `json:"model_name"`
	ModelVersion string            `json:"model_version,omitempty"`
	Tokens       []string          `json:"tokens"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the request is valid.
func (r *PredictRequest) Validate() error {
	if r == nil {
		return ErrInvalidInput.WithDetail("nil request")
	}
	if r.ModelName == "" {
		return ErrInvalidInput.WithDetail("model_name is required")
	}
	if len(r.Tokens) == 0 {
		return ErrInvalidInput.WithDetail("tokens are required")
	}
	return nil
}

// PredictResponse carries one BIO tag per request token.
type PredictResponse struct {
	ModelName       string   `json:"model_name"`
	ModelVersion    string   `json:"model_version"`
	Tags            []string `json:"tags"`
	InferenceTimeMs int64    `json:"inference_time_ms"`
}

// ---------------------------------------------------------------------------
// Wire encoding
// ---------------------------------------------------------------------------

// EncodeRequest converts req to the structpb message sent to the tagger.
func EncodeRequest(req *PredictRequest) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"model_name": req.ModelName,
		"tokens":     stringsToAny(req.Tokens),
	}
	if req.ModelVersion != "" {
		fields["model_version"] = req.ModelVersion
	}
	if len(req.Metadata) > 0 {
		md := make(map[string]interface{}, len(req.Metadata))
		for k, v := range req.Metadata {
			md[k] = v
		}
		fields["metadata"] = md
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode predict request")
	}
	return s, nil
}

// DecodeRequest is the server-side inverse of EncodeRequest.
func DecodeRequest(s *structpb.Struct) (*PredictRequest, error) {
	req := &PredictRequest{}
	if s == nil {
		return req, nil
	}
	f := s.GetFields()
	req.ModelName = f["model_name"].GetStringValue()
	req.ModelVersion = f["model_version"].GetStringValue()
	tokens, err := listToStrings(f["tokens"], "tokens")
	if err != nil {
		return nil, err
	}
	req.Tokens = tokens
	if md := f["metadata"].GetStructValue(); md != nil {
		req.Metadata = make(map[string]string, len(md.GetFields()))
		for k, v := range md.GetFields() {
			req.Metadata[k] = v.GetStringValue()
		}
	}
	return req, nil
}

// EncodeResponse converts resp to its structpb message.
func EncodeResponse(resp *PredictResponse) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"model_name":        resp.ModelName,
		"model_version":     resp.ModelVersion,
		"tags":              stringsToAny(resp.Tags),
		"inference_time_ms": float64(resp.InferenceTimeMs),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode predict response")
	}
	return s, nil
}

// DecodeResponse parses the tagger's structpb reply.
func DecodeResponse(s *structpb.Struct) (*PredictResponse, error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeSerialization, "empty predict response")
	}
	f := s.GetFields()
	tags, err := listToStrings(f["tags"], "tags")
	if err != nil {
		return nil, err
	}
	return &PredictResponse{
		ModelName:       f["model_name"].GetStringValue(),
		ModelVersion:    f["model_version"].GetStringValue(),
		Tags:            tags,
		InferenceTimeMs: int64(f["inference_time_ms"].GetNumberValue()),
	}, nil
}

func stringsToAny(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func listToStrings(v *structpb.Value, field string) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, errors.New(errors.ErrCodeSerialization, "field is not a list").WithDetail(field)
	}
	out := make([]string, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, errors.New(errors.ErrCodeSerialization, "list item is not a string").WithDetailf("%s[%d]", field, i)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

//Personal.AI order the ending
