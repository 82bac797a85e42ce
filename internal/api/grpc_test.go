package api

import (
	"context"
	"net"
	"testing"
	"time"

	"quickbook/internal/config"
	"quickbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func startGRPC(t *testing.T, env *testEnv, cfg config.APIConfig) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := newGRPCServer(cfg, env.svc.Rooms, nil, time.UTC, testLogger())
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func checkRoom(ctx context.Context, conn *grpc.ClientConn, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	resp := new(structpb.Struct)
	if err := conn.Invoke(ctx, CheckRoomMethod, req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func TestGRPCCheckRoom(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())
	_, token := env.user(t, "Alice", "alice@jadeglobal.com", models.RoleEmployee)
	room := env.room(t, "Orion", models.RoomAvailable)
	broken := env.room(t, "Vega", models.RoomUnderMaintenance)

	resp := env.do(t, "POST", "/api/users/reservations", token, reservationBody(room.ID, "Sync", 10, 11))
	require.Equal(t, 201, resp.status, string(resp.body))

	conn := startGRPC(t, env, testAPIConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		name      string
		fields    map[string]any
		status    models.RoomStatus
		available bool
	}{
		{
			name:   "booked",
			fields: map[string]any{"roomId": float64(room.ID), "date": "2030-03-04", "start": "10:30", "end": "11:30"},
			status: models.StatusRoomBooked,
		},
		{
			name:      "free after the booking",
			fields:    map[string]any{"roomId": float64(room.ID), "date": "2030-03-04", "start": "11:00", "end": "12:00"},
			status:    models.StatusRoomAvailable,
			available: true,
		},
		{
			name:   "maintenance",
			fields: map[string]any{"roomId": float64(broken.ID), "date": "2030-03-04", "start": "10:00", "end": "11:00"},
			status: models.StatusRoomUnderMaintenance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := checkRoom(ctx, conn, tt.fields)
			require.NoError(t, err)
			f := out.GetFields()
			assert.Equal(t, string(tt.status), f["status"].GetStringValue())
			assert.Equal(t, tt.available, f["available"].GetBoolValue())
		})
	}

	t.Run("response carries the interval", func(t *testing.T) {
		out, err := checkRoom(ctx, conn, map[string]any{"roomId": float64(room.ID), "date": "2030-03-04", "start": "09:00", "end": "09:30"})
		require.NoError(t, err)
		f := out.GetFields()
		assert.Equal(t, "Orion", f["roomName"].GetStringValue())
		assert.Equal(t, "2030-03-04T09:00:00Z", f["start"].GetStringValue())
		assert.Equal(t, "2030-03-04T09:30:00Z", f["end"].GetStringValue())
	})

	errCases := []struct {
		name   string
		fields map[string]any
		code   codes.Code
	}{
		{name: "missing room", fields: map[string]any{"start": "10:00", "end": "11:00"}, code: codes.InvalidArgument},
		{name: "missing clocks", fields: map[string]any{"roomId": float64(room.ID)}, code: codes.InvalidArgument},
		{name: "bad date", fields: map[string]any{"roomId": float64(room.ID), "date": "04.03.2030", "start": "10:00", "end": "11:00"}, code: codes.InvalidArgument},
		{name: "inverted", fields: map[string]any{"roomId": float64(room.ID), "date": "2030-03-04", "start": "11:00", "end": "10:00"}, code: codes.InvalidArgument},
		{name: "unknown room", fields: map[string]any{"roomId": float64(999), "date": "2030-03-04", "start": "10:00", "end": "11:00"}, code: codes.NotFound},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := checkRoom(ctx, conn, tt.fields)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestGRPCRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())
	room := env.room(t, "Orion", models.RoomAvailable)
	conn := startGRPC(t, env, testAPIConfig())

	ctx := metadata.AppendToOutgoingContext(context.Background(), requestIDMetadataKey, "grpc-req-1")
	var header metadata.MD
	_, err := checkRoom(ctx, conn,
		map[string]any{"roomId": float64(room.ID), "date": "2030-03-04", "start": "10:00", "end": "11:00"},
		grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"grpc-req-1"}, header.Get(requestIDMetadataKey))
}

func TestGRPCHealth(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())
	conn := startGRPC(t, env, testAPIConfig())

	client := healthpb.NewHealthClient(conn)
	for _, svc := range []string{"", AvailabilityServiceName} {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	}
}

func TestGRPCRateLimit(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())
	room := env.room(t, "Orion", models.RoomAvailable)

	cfg := testAPIConfig()
	cfg.RateLimit = configRate(0.001, 1)
	conn := startGRPC(t, env, cfg)

	fields := map[string]any{"roomId": float64(room.ID), "date": "2030-03-04", "start": "10:00", "end": "11:00"}
	_, err := checkRoom(context.Background(), conn, fields)
	require.NoError(t, err)

	_, err = checkRoom(context.Background(), conn, fields)
	require.Error(t, err)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}
