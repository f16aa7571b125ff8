// Package common holds the remote model serving client shared by the
// intelligence layer: a gRPC client for the sequence tagger, its wire
// encoding over structpb messages and inference metrics.
package common

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// ---------------------------------------------------------------------------
// Service descriptor
// ---------------------------------------------------------------------------

// The tagger service exchanges google.protobuf.Struct messages, so no
// generated stubs are required on either side.
const (
	TaggerServiceName = "legisgraph.ner.v1.Tagger"
	PredictMethod     = "/" + TaggerServiceName + "/Predict"
)

// TaggerServer is implemented by tagger backends served over gRPC.
type TaggerServer interface {
	Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func taggerPredictHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TaggerServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PredictMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TaggerServer).Predict(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// TaggerServiceDesc describes the tagger service for grpc.Server.
var TaggerServiceDesc = grpc.ServiceDesc{
	ServiceName: TaggerServiceName,
	HandlerType: (*TaggerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Predict", Handler: taggerPredictHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "legisgraph/ner/v1/tagger.proto",
}

// RegisterTaggerServer registers srv on s.
func RegisterTaggerServer(s grpc.ServiceRegistrar, srv TaggerServer) {
	s.RegisterService(&TaggerServiceDesc, srv)
}

// ---------------------------------------------------------------------------
// gRPC client
// ---------------------------------------------------------------------------

// ServingConfig configures the gRPC serving client.
type ServingConfig struct {
	Endpoint string
	Timeout  time.Duration
	// Insecure disables transport security.
	Insecure bool
}

// GRPCServingClient calls the tagger service over one client connection.
type GRPCServingClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	logger  logging.Logger
	metrics InferenceMetrics
}

// ServingOption customizes a GRPCServingClient.
type ServingOption func(*servingOptions)

type servingOptions struct {
	logger   logging.Logger
	metrics  InferenceMetrics
	dialOpts []grpc.DialOption
}

// WithServingLogger sets the client logger.
func WithServingLogger(l logging.Logger) ServingOption {
	return func(o *servingOptions) { o.logger = l }
}

// WithInferenceMetrics sets the metrics sink.
func WithInferenceMetrics(m InferenceMetrics) ServingOption {
	return func(o *servingOptions) { o.metrics = m }
}

// WithDialOptions appends raw grpc dial options.
func WithDialOptions(opts ...grpc.DialOption) ServingOption {
	return func(o *servingOptions) { o.dialOpts = append(o.dialOpts, opts...) }
}

// NewGRPCServingClient creates a client for cfg.Endpoint.  The connection is
// established lazily by grpc.
func NewGRPCServingClient(cfg ServingConfig, opts ...ServingOption) (*GRPCServingClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "ner endpoint is required")
	}
	o := &servingOptions{logger: logging.NewNopLogger(), metrics: NewNoopInferenceMetrics()}
	for _, opt := range opts {
		opt(o)
	}
	dialOpts := o.dialOpts
	if cfg.Insecure {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.Dial(cfg.Endpoint, dialOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTaggerUnavailable, "dial ner tagger").WithDetail(cfg.Endpoint)
	}
	o.logger.Info("ner serving client created", logging.String("endpoint", cfg.Endpoint))
	return &GRPCServingClient{
		conn:    conn,
		timeout: cfg.Timeout,
		logger:  o.logger.Named("ner"),
		metrics: o.metrics,
	}, nil
}

// Predict sends req to the tagger.  Transport failures carry
// ErrCodeTaggerUnavailable; application errors carry ErrCodeTaggerFailed.
func (c *GRPCServingClient) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	in, err := EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out := new(structpb.Struct)
	err = c.conn.Invoke(ctx, PredictMethod, in, out)
	c.metrics.RecordInference(req.ModelName, time.Since(start), err)
	if err != nil {
		c.logger.Warn("ner predict failed",
			logging.String("model", req.ModelName),
			logging.Int("tokens", len(req.Tokens)),
			logging.Err(err))
		return nil, classifyRPCError(err)
	}
	return DecodeResponse(out)
}

// Healthy reports whether the connection is usable.
func (c *GRPCServingClient) Healthy(_ context.Context) error {
	switch st := c.conn.GetState(); st {
	case connectivity.Shutdown, connectivity.TransientFailure:
		return errors.New(errors.ErrCodeTaggerUnavailable, "ner tagger connection unhealthy").WithDetail(st.String())
	}
	return nil
}

// Close releases the connection.
func (c *GRPCServingClient) Close() error {
	return c.conn.Close()
}

func classifyRPCError(err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return errors.Wrap(err, errors.ErrCodeTaggerUnavailable, "ner tagger unreachable")
	}
	return errors.Wrap(err, errors.ErrCodeTaggerFailed, "ner tagger returned an error")
}

// ---------------------------------------------------------------------------
// entity.Tagger adapter
// ---------------------------------------------------------------------------

// RemoteTagger adapts a ModelBackend to the entity extractor's Tagger port.
type RemoteTagger struct {
	backend ModelBackend
	model   string
}

// NewRemoteTagger tags sentences with the named model on backend.
func NewRemoteTagger(backend ModelBackend, model string) *RemoteTagger {
	return &RemoteTagger{backend: backend, model: model}
}

// Predict returns one BIO tag per token.  An empty sentence needs no call.
func (t *RemoteTagger) Predict(ctx context.Context, tokens []string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	resp, err := t.backend.Predict(ctx, &PredictRequest{ModelName: t.model, Tokens: tokens})
	if err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

//Personal.AI order the ending
