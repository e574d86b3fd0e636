package handler

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	ListingServiceName = "listings.v1.ListingService"
	jsonCodecName      = "json"
)

// jsonCodec lets the listing service exchange the plain Go wire types over
// gRPC. Callers select it with the "application/grpc+json" content subtype.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// ListingServiceServer is the gRPC surface of the listing mutation engine.
type ListingServiceServer interface {
	CreateListing(context.Context, *CreateListingRequest) (*ListingDTO, error)
	GetListing(context.Context, *ListingRequest) (*ListingDTO, error)
	ListListings(context.Context, *ListListingsRequest) (*ListListingsResponse, error)
	AddImage(context.Context, *AddImageRequest) (*ImageDTO, error)
	RemoveImage(context.Context, *RemoveImageRequest) (*MutationResponse, error)
	ReorderImages(context.Context, *ReorderImagesRequest) (*MutationResponse, error)
	UpdateImage(context.Context, *UpdateImageRequest) (*ImageDTO, error)
	Publish(context.Context, *ListingRequest) (*StatusResponse, error)
	Unpublish(context.Context, *ListingRequest) (*StatusResponse, error)
	Archive(context.Context, *ListingRequest) (*StatusResponse, error)
	Unarchive(context.Context, *ListingRequest) (*StatusResponse, error)
	MoveToPortfolio(context.Context, *ListingRequest) (*StatusResponse, error)
}

func unaryHandler[Req, Resp any](method string, call func(ListingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(ListingServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ListingServiceName + "/" + method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		})
	}
}

var ListingServiceDesc = grpc.ServiceDesc{
	ServiceName: ListingServiceName,
	HandlerType: (*ListingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateListing", Handler: unaryHandler("CreateListing", ListingServiceServer.CreateListing)},
		{MethodName: "GetListing", Handler: unaryHandler("GetListing", ListingServiceServer.GetListing)},
		{MethodName: "ListListings", Handler: unaryHandler("ListListings", ListingServiceServer.ListListings)},
		{MethodName: "AddImage", Handler: unaryHandler("AddImage", ListingServiceServer.AddImage)},
		{MethodName: "RemoveImage", Handler: unaryHandler("RemoveImage", ListingServiceServer.RemoveImage)},
		{MethodName: "ReorderImages", Handler: unaryHandler("ReorderImages", ListingServiceServer.ReorderImages)},
		{MethodName: "UpdateImage", Handler: unaryHandler("UpdateImage", ListingServiceServer.UpdateImage)},
		{MethodName: "Publish", Handler: unaryHandler("Publish", ListingServiceServer.Publish)},
		{MethodName: "Unpublish", Handler: unaryHandler("Unpublish", ListingServiceServer.Unpublish)},
		{MethodName: "Archive", Handler: unaryHandler("Archive", ListingServiceServer.Archive)},
		{MethodName: "Unarchive", Handler: unaryHandler("Unarchive", ListingServiceServer.Unarchive)},
		{MethodName: "MoveToPortfolio", Handler: unaryHandler("MoveToPortfolio", ListingServiceServer.MoveToPortfolio)},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterListingServiceServer(s grpc.ServiceRegistrar, srv ListingServiceServer) {
	s.RegisterService(&ListingServiceDesc, srv)
}

// ListingClient calls ListingServiceServer over a client connection using the
// JSON codec.
type ListingClient struct {
	cc grpc.ClientConnInterface
}

func NewListingClient(cc grpc.ClientConnInterface) *ListingClient {
	return &ListingClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *ListingClient, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ListingServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ListingClient) CreateListing(ctx context.Context, in *CreateListingRequest, opts ...grpc.CallOption) (*ListingDTO, error) {
	return invoke[ListingDTO](ctx, c, "CreateListing", in, opts)
}

func (c *ListingClient) GetListing(ctx context.Context, in *ListingRequest, opts ...grpc.CallOption) (*ListingDTO, error) {
	return invoke[ListingDTO](ctx, c, "GetListing", in, opts)
}

func (c *ListingClient) ListListings(ctx context.Context, in *ListListingsRequest, opts ...grpc.CallOption) (*ListListingsResponse, error) {
	return invoke[ListListingsResponse](ctx, c, "ListListings", in, opts)
}

func (c *ListingClient) AddImage(ctx context.Context, in *AddImageRequest, opts ...grpc.CallOption) (*ImageDTO, error) {
	return invoke[ImageDTO](ctx, c, "AddImage", in, opts)
}

func (c *ListingClient) RemoveImage(ctx context.Context, in *RemoveImageRequest, opts ...grpc.CallOption) (*MutationResponse, error) {
	return invoke[MutationResponse](ctx, c, "RemoveImage", in, opts)
}

func (c *ListingClient) ReorderImages(ctx context.Context, in *ReorderImagesRequest, opts ...grpc.CallOption) (*MutationResponse, error) {
	return invoke[MutationResponse](ctx, c, "ReorderImages", in, opts)
}

func (c *ListingClient) UpdateImage(ctx context.Context, in *UpdateImageRequest, opts ...grpc.CallOption) (*ImageDTO, error) {
	return invoke[ImageDTO](ctx, c, "UpdateImage", in, opts)
}

func (c *ListingClient) Publish(ctx context.Context, in *ListingRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c, "Publish", in, opts)
}

func (c *ListingClient) Unpublish(ctx context.Context, in *ListingRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c, "Unpublish", in, opts)
}

func (c *ListingClient) Archive(ctx context.Context, in *ListingRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c, "Archive", in, opts)
}

func (c *ListingClient) Unarchive(ctx context.Context, in *ListingRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c, "Unarchive", in, opts)
}

func (c *ListingClient) MoveToPortfolio(ctx context.Context, in *ListingRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c, "MoveToPortfolio", in, opts)
}
