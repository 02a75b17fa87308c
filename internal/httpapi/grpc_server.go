package httpapi

import (
	"context"
	"errors"
	"net"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
	"github.com/Ishan662/Employee-Management-System-backend/internal/obs"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

// Authenticator verifies bearer tokens. *auth.Service implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// DefaultGRPCPolicies guards the reflection service; unlisted methods only
// need an authenticated caller.
func DefaultGRPCPolicies() map[string]auth.Requirement {
	admin := auth.RequireAnyRole(auth.RoleAdmin)
	return map[string]auth.Requirement{
		"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      admin,
		"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": admin,
	}
}

// GRPCServer hosts the health service and reflection behind the auth interceptors.
type GRPCServer struct {
	server *grpc.Server
	health *readinessHealth
}

// NewGRPCServer builds the gRPC server. Health RPCs are public.
func NewGRPCServer(authn Authenticator, policies map[string]auth.Requirement, r ReadinessChecker, opts ...grpc.ServerOption) *GRPCServer {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(UnaryAuthInterceptor(authn, policies)),
		grpc.ChainStreamInterceptor(StreamAuthInterceptor(authn, policies)),
	)
	srv := grpc.NewServer(opts...)
	hs := &readinessHealth{Server: health.NewServer(), readiness: r}
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return &GRPCServer{server: srv, health: hs}
}

func (s *GRPCServer) Serve(lis net.Listener) error { return s.server.Serve(lis) }

func (s *GRPCServer) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func (s *GRPCServer) Stop() { s.server.Stop() }

// readinessHealth re-evaluates readiness on every Check.
type readinessHealth struct {
	*health.Server
	readiness ReadinessChecker
}

func (h *readinessHealth) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if h.readiness != nil && req.GetService() == "" {
		if err := h.readiness.Check(ctx); err != nil {
			obs.SetReady(false)
			h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		} else {
			obs.SetReady(true)
			h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		}
	}
	return h.Server.Check(ctx, req)
}

// UnaryAuthInterceptor authenticates the "authorization" metadata and
// evaluates the method's Requirement.
func UnaryAuthInterceptor(authn Authenticator, policies map[string]auth.Requirement) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := authorizeRPC(ctx, authn, policies, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor is the streaming counterpart of UnaryAuthInterceptor.
func StreamAuthInterceptor(authn Authenticator, policies map[string]auth.Requirement) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authorizeRPC(ss.Context(), authn, policies, info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
	}
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context { return s.ctx }

func authorizeRPC(ctx context.Context, authn Authenticator, policies map[string]auth.Requirement, method string) (context.Context, error) {
	if strings.HasPrefix(method, healthServicePrefix) {
		return ctx, nil
	}
	req, ok := policies[method]
	if !ok {
		req = auth.RequireAuthenticated()
	}

	var claims *auth.Claims
	if token, present := bearerFromMetadata(ctx); present {
		if authn == nil {
			return nil, status.Error(codes.Unauthenticated, "authentication unavailable")
		}
		c, err := authn.Authenticate(ctx, token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				obs.ObserveDecision("grpc", auth.DecisionUnauthenticated.String())
				return nil, status.Error(codes.Unauthenticated, "invalid token")
			}
			obs.Logger().Error("grpc authentication error", zap.String("method", method), zap.Error(err))
			return nil, status.Error(codes.Internal, "authentication error")
		}
		claims = c
	}

	decision := auth.Decide(claims, req)
	obs.ObserveDecision("grpc", decision.String())
	switch decision {
	case auth.DecisionAuthorized:
		ctx = auth.ContextWithClaims(ctx, claims)
		return ctx, nil
	case auth.DecisionUnauthenticated:
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	default:
		return nil, status.Error(codes.PermissionDenied, "insufficient privileges: requires "+req.String())
	}
}

func bearerFromMetadata(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get("authorization")
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return "", false
	}
	token, err := extractBearerToken(values[0])
	if err != nil {
		// A malformed header is still an authentication attempt.
		return values[0], true
	}
	return token, true
}
