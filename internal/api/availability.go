package api

import (
	"context"
	"errors"
	"time"

	"quickbook/internal/booking"
	"quickbook/internal/database"
	"quickbook/internal/models"
	"quickbook/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	AvailabilityServiceName = "quickbook.availability.v1.AvailabilityService"
	CheckRoomMethod         = "/" + AvailabilityServiceName + "/CheckRoom"
)

// AvailabilityServer answers room availability queries over gRPC. Messages
// are google.protobuf.Struct so no generated code is required.
//
// CheckRoom request fields: roomId (number), date ("YYYY-MM-DD", default
// today), start and end ("HH:MM"). Response fields: roomId, roomName, status,
// available, start, end.
type AvailabilityServer interface {
	CheckRoom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var availabilityServiceDesc = grpc.ServiceDesc{
	ServiceName: AvailabilityServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckRoom", Handler: checkRoomHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "quickbook/availability/v1/availability.proto",
}

func RegisterAvailabilityServer(s grpc.ServiceRegistrar, srv AvailabilityServer) {
	s.RegisterService(&availabilityServiceDesc, srv)
}

func checkRoomHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).CheckRoom(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckRoomMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).CheckRoom(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type AvailabilityService struct {
	rooms *service.RoomService
	loc   *time.Location
	now   func() time.Time
}

func NewAvailabilityService(rooms *service.RoomService, loc *time.Location) *AvailabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{rooms: rooms, loc: loc, now: time.Now}
}

func (s *AvailabilityService) CheckRoom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	roomID := int64(fields["roomId"].GetNumberValue())
	if roomID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "roomId is required")
	}

	start := fields["start"].GetStringValue()
	end := fields["end"].GetStringValue()
	if start == "" || end == "" {
		return nil, status.Error(codes.InvalidArgument, "start and end are required (HH:MM)")
	}

	day := s.now().In(s.loc)
	if raw := fields["date"].GetStringValue(); raw != "" {
		d, err := parseDate(raw, s.loc)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		day = d
	}

	iv, err := booking.DayInterval(day, start, end, s.loc)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, grpcError(err)
	}
	st, err := s.rooms.Status(ctx, roomID, iv)
	if err != nil {
		return nil, grpcError(err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"roomId":    float64(room.ID),
		"roomName":  room.Name,
		"status":    string(st),
		"available": st == models.StatusRoomAvailable,
		"start":     iv.Start.Format(time.RFC3339),
		"end":       iv.End.Format(time.RFC3339),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to build response")
	}
	return resp, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return status.Error(codes.NotFound, "room not found")
	case errors.Is(err, booking.ErrInvalidInterval):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "failed to check availability")
	}
}
